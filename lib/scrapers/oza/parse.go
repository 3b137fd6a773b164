package oza

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"oza-scraper/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Extractor holds everything the markup parsers need. Extraction is
// best-effort throughout: a missing element degrades to a zero value
// with a log line, it never returns an error. Transport failures are
// the client's business, not the parser's.
type Extractor struct {
	Fields FieldNames
	Rules  Rules
}

// SchoolOptions reads the campus selector in document order. An
// absent selector yields an empty result.
func (e Extractor) SchoolOptions(doc *goquery.Document) []SchoolOption {
	sel := doc.Find("select#" + e.Fields.SchoolSelectID).First()
	if sel.Length() == 0 {
		return nil
	}

	var options []SchoolOption
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		val := strings.TrimSpace(opt.AttrOr("value", ""))
		if val == "" {
			return
		}
		options = append(options, SchoolOption{
			ID:    val,
			Label: htmlutil.CellText(opt),
		})
	})
	return options
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// normalizeStartLabel turns labels like "1605～" into "16:05". The
// last two digits are minutes, everything before them hours; fewer
// than three digits is not a time.
func normalizeStartLabel(label string) string {
	digits := nonDigits.ReplaceAllString(label, "")
	if len(digits) < 3 {
		return ""
	}
	hh := atoiOrZero(digits[:len(digits)-2])
	mm := atoiOrZero(digits[len(digits)-2:])
	return fmt.Sprintf("%02d:%02d", hh, mm)
}

// ParseSessionTable parses the day's session table. Two or fewer rows
// means the "no sessions scheduled" placeholder; data rows are
// expected to have exactly six cells and anything else is skipped
// without disturbing its siblings.
func (e Extractor) ParseSessionTable(doc *goquery.Document) []AttendanceRow {
	table := doc.Find("table#" + e.Fields.DataTableID).First()
	if table.Length() == 0 {
		return nil
	}

	schoolName := ""
	selected := doc.Find("select#" + e.Fields.SchoolSelectID + " option[selected]").First()
	if selected.Length() > 0 {
		schoolName = htmlutil.CellText(selected)
	}

	trs := table.Find("tr")
	if trs.Length() <= 2 {
		return nil
	}

	var rows []AttendanceRow
	for i := 2; i < trs.Length(); i++ {
		tds := trs.Eq(i).Find("td")
		if tds.Length() != 6 {
			continue
		}
		expected := atoiOrZero(htmlutil.CellText(tds.Eq(3)))
		trial := atoiOrZero(htmlutil.CellText(tds.Eq(4)))
		rows = append(rows, AttendanceRow{
			Limit:         htmlutil.CellText(tds.Eq(0)),
			StartTime:     normalizeStartLabel(htmlutil.CellText(tds.Eq(1))),
			ClassName:     htmlutil.CellText(tds.Eq(2)),
			ExpectedCount: expected,
			TrialCount:    trial,
			HasClass:      expected+trial > 0,
			SchoolName:    schoolName,
		})
	}
	return rows
}

var planCallRegex = regexp.MustCompile(`callPlanDetail\('([^']+)','([^']+)','([^']+)','([^']+)','([^']+)'\)`)

// resolvePlanCall rebuilds the detail URL from an inline
// callPlanDetail('crsIdx','cgpIdx','sclIdx','planDate','sttTime')
// invocation. This and resolveHref are the only two producers of
// detail URLs and both must emit the same canonical shape.
func (e Extractor) resolvePlanCall(base *url.URL, onclick string) (string, bool) {
	m := planCallRegex.FindStringSubmatch(onclick)
	if len(m) < 6 {
		return "", false
	}
	return fmt.Sprintf(
		"%s%s?crsIdx=%s&cgpIdx=%s&sclIdx=%s&planDate=%s&sttTime=%s",
		base.String(), e.Fields.DetailPage,
		m[1], m[2], m[3], m[4], m[5],
	), true
}

func resolveHref(base *url.URL, href string) (string, bool) {
	if href == "" || href == "#" || strings.HasPrefix(href, "javascript:") {
		return "", false
	}
	if strings.HasPrefix(href, "http") {
		return href, true
	}
	if strings.HasPrefix(href, "/") {
		return base.Scheme + "://" + base.Host + href, true
	}
	return base.String() + href, true
}

func (e Extractor) isClassHeaderRow(row *goquery.Selection) bool {
	found := false
	row.Find("th").Each(func(_ int, th *goquery.Selection) {
		text := htmlutil.CellText(th)
		for _, name := range e.Rules.ClassHeaderNames {
			if text == name {
				found = true
			}
		}
	})
	return found
}

// ExtractDetailLinks scans every table carrying the data-table id for
// class rows whose third cell links to a detail page. Tables without
// a class-name heading, and tables whose second row is the
// no-schedule placeholder, are skipped.
func (e Extractor) ExtractDetailLinks(doc *goquery.Document, base *url.URL) []DetailLink {
	var links []DetailLink

	doc.Find("table#" + e.Fields.DataTableID).Each(func(tableIdx int, table *goquery.Selection) {
		rows := table.Find("tr")

		if rows.Length() > 1 &&
			strings.Contains(htmlutil.CellText(rows.Eq(1)), e.Rules.NoScheduleText) {
			return
		}

		headerIdx := -1
		rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
			if e.isClassHeaderRow(row) {
				headerIdx = i
				return false
			}
			return true
		})
		if headerIdx < 0 {
			slog.Debug("data table without class heading, skipping", "table", tableIdx)
			return
		}

		for i := headerIdx + 1; i < rows.Length(); i++ {
			tds := rows.Eq(i).Find("td")
			if tds.Length() < 3 {
				continue
			}
			anchor := tds.Eq(2).Find("a").First()
			if anchor.Length() == 0 {
				continue
			}
			className := htmlutil.CellText(anchor)

			link, ok := e.resolvePlanCall(base, anchor.AttrOr("onclick", ""))
			if !ok {
				link, ok = resolveHref(base, anchor.AttrOr("href", ""))
			}
			if !ok {
				slog.Warn("could not resolve detail link", "class", className, "row", i)
				continue
			}
			links = append(links, DetailLink{ClassName: className, URL: link})
		}
	})

	return links
}

func (e Extractor) labelText(doc *goquery.Document, id string) string {
	span := doc.Find("span#" + id).First()
	if span.Length() == 0 {
		return ""
	}
	return htmlutil.CellText(span)
}

// ParseClassDetail reads the class detail page: the four labeled
// header spans (each tolerated absent), the teacher table, and the
// student table with its attendance bookkeeping.
func (e Extractor) ParseClassDetail(doc *goquery.Document) ClassDetailRecord {
	rec := ClassDetailRecord{
		ClassName:  e.labelText(doc, e.Fields.ClassNameLabelID),
		Date:       e.labelText(doc, e.Fields.PlanDateLabelID),
		StartTime:  e.labelText(doc, e.Fields.StartTimeLabelID),
		SchoolName: e.labelText(doc, e.Fields.SchoolNameLabelID),
	}

	tables := doc.Find("table#" + e.Fields.DataTableID)
	if tables.Length() > 0 {
		e.parseTeacherTable(tables.Eq(0), &rec)
	}
	if tables.Length() > 1 {
		e.parseStudentTable(tables.Eq(1), &rec)
	}
	return rec
}

// the teacher row is the first data row whose leading cell carries
// the id prefix; a row without the prefix but with three or more
// cells is an older layout where the third cell is the name
func (e Extractor) parseTeacherTable(table *goquery.Selection, rec *ClassDetailRecord) {
	prefix := e.Rules.TeacherIDPrefix
	rows := table.Find("tr")

	for i := 1; i < rows.Length(); i++ {
		tds := rows.Eq(i).Find("td")
		if tds.Length() < 2 {
			continue
		}

		first := htmlutil.CellText(tds.Eq(0))
		if strings.Contains(first, prefix) {
			id := ""
			for _, part := range strings.Fields(first) {
				if strings.HasPrefix(part, prefix) {
					id = strings.TrimSpace(strings.TrimPrefix(part, prefix))
					break
				}
			}
			if id == "" {
				parts := strings.Fields(strings.ReplaceAll(first, prefix, ""))
				if len(parts) > 0 {
					id = parts[0]
				}
			}
			rec.TeacherID = id
			rec.TeacherName = htmlutil.CellText(tds.Eq(1))
			if tds.Length() >= 4 {
				rec.TeacherAttendance = htmlutil.CellText(tds.Eq(3))
			}
			if tds.Length() >= 6 {
				rec.TeacherMemo = htmlutil.CellText(tds.Eq(5))
			}
			return
		}

		if tds.Length() >= 3 {
			name := htmlutil.CellText(tds.Eq(2))
			if name != "" {
				rec.TeacherName = name
				return
			}
		}
	}
}

// student rows carry many columns; anything under ten cells is a
// spacer or header leftover. A student counts as attended when the
// checkbox is checked or the status text equals the attended token;
// the memo decides regular vs. substitution. The three counters are
// mutually exclusive per row.
func (e Extractor) parseStudentTable(table *goquery.Selection, rec *ClassDetailRecord) {
	rows := table.Find("tr")

	for i := 1; i < rows.Length(); i++ {
		tds := rows.Eq(i).Find("td")
		if tds.Length() < 10 {
			continue
		}

		checked := tds.Eq(4).Find("input[type=checkbox][checked]").Length() > 0
		status := htmlutil.CellText(tds.Eq(5))
		memo := htmlutil.CellText(tds.Eq(8))

		if checked || status == e.Rules.AttendedToken {
			rec.AttendanceCount++
			if e.Rules.IsSubstitution(memo) {
				rec.AttendanceCountSubstitution++
			} else {
				rec.AttendanceCountRegular++
			}
		} else if status == e.Rules.AbsentToken {
			rec.AbsentCount++
		}

		rec.Students = append(rec.Students, StudentRecord{
			Name:     htmlutil.CellText(tds.Eq(3)),
			ID:       htmlutil.CellText(tds.Eq(2)),
			Attended: checked,
			Status:   status,
			Memo:     memo,
		})
	}
}
