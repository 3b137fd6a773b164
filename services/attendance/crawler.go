package attendance

import (
	"context"
	"log/slog"
	"time"

	"oza-scraper/lib/scrapers/oza"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("services/attendance")

// Crawler walks course → school → day strictly sequentially. Within a
// school the hidden state threads from each day's response into the
// next day's submission; selecting a new course or school re-anchors
// it from a fresh page. The pauses are advisory pacing for the remote
// server, not a rate-limit protocol.
type Crawler struct {
	Client *oza.Client
	// wait between day submissions
	Pause time.Duration
	// wait between detail page fetches
	DetailPause time.Duration
}

type Params struct {
	CourseIDs []int
	// nil means read the campus selector and use every numeric option
	SchoolIDs    []string
	From, To     time.Time
	FetchDetails bool
}

type Result struct {
	Rows    []oza.AttendanceRow
	Details []oza.ClassDetailRecord
}

func numericSchoolIDs(options []oza.SchoolOption) []string {
	var ids []string
	for _, opt := range options {
		numeric := opt.ID != ""
		for _, c := range opt.ID {
			if c < '0' || c > '9' {
				numeric = false
				break
			}
		}
		if numeric {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

func (c Crawler) sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// Crawl never fails as a whole: a broken course skips that course, a
// broken day skips that day. Whatever was collected before an error
// is kept.
func (c Crawler) Crawl(ctx context.Context, params Params) Result {
	ctx, span := tracer.Start(ctx, "Crawl", trace.WithAttributes(
		attribute.String("from", params.From.Format("2006-01-02")),
		attribute.String("to", params.To.Format("2006-01-02")),
	))
	defer span.End()

	var result Result
	for _, courseID := range params.CourseIDs {
		slog.Info("crawling course", "course_id", courseID)

		page, err := c.Client.OpenPage(ctx, c.Client.AttendanceURL)
		if err != nil {
			slog.Warn("failed to open attendance page", "course_id", courseID, "err", err)
			continue
		}
		page, err = c.Client.SelectCourse(ctx, page, courseID)
		if err != nil {
			slog.Warn("failed to select course", "course_id", courseID, "err", err)
			continue
		}

		schoolIDs := params.SchoolIDs
		if len(schoolIDs) == 0 {
			schoolIDs = numericSchoolIDs(c.Client.SchoolOptions(page.Doc))
			slog.Info("resolved schools from selector", "course_id", courseID, "count", len(schoolIDs))
		}

		for _, schoolID := range schoolIDs {
			c.crawlSchool(ctx, &result, page, params, courseID, schoolID)
		}
	}
	return result
}

func (c Crawler) crawlSchool(ctx context.Context, result *Result, coursePage oza.Page, params Params, courseID int, schoolID string) {
	ctx, span := tracer.Start(ctx, "crawlSchool", trace.WithAttributes(
		attribute.Int("course_id", courseID),
		attribute.String("school_id", schoolID),
	))
	defer span.End()

	// day one submits against the course-selection page; every later
	// day submits against the page the previous day returned
	state := coursePage.State
	for day := params.From; !day.After(params.To); day = day.AddDate(0, 0, 1) {
		date := day.Format("2006-01-02")

		page, err := c.Client.SearchDay(ctx, state, day, courseID, schoolID)
		if err != nil {
			// keep the last good state, the next day retries from it
			slog.Warn("day fetch failed",
				"date", date, "course_id", courseID, "school_id", schoolID, "err", err)
			continue
		}
		state = page.State

		rows := c.Client.ParseSessionTable(page.Doc)
		for i := range rows {
			rows[i].Date = date
			rows[i].SchoolID = schoolID
			rows[i].CourseID = courseID
		}
		result.Rows = append(result.Rows, rows...)

		details := 0
		if params.FetchDetails {
			details = c.fetchDetails(ctx, result, page, date, courseID, schoolID)
		}

		slog.Info("day scraped",
			"date", date, "course_id", courseID, "school_id", schoolID,
			"rows", len(rows), "details", details)
		c.sleep(c.Pause)
	}
}

func (c Crawler) fetchDetails(ctx context.Context, result *Result, page oza.Page, date string, courseID int, schoolID string) int {
	links := c.Client.ExtractDetailLinks(page.Doc, c.Client.BaseURL)

	fetched := 0
	for _, link := range links {
		detailPage, err := c.Client.OpenPage(ctx, link.URL)
		if err != nil {
			slog.Warn("detail fetch failed", "class", link.ClassName, "url", link.URL, "err", err)
			continue
		}
		rec := c.Client.ParseClassDetail(detailPage.Doc)
		rec.Date = date
		rec.SchoolID = schoolID
		rec.CourseID = courseID
		result.Details = append(result.Details, rec)
		fetched++
		c.sleep(c.DetailPause)
	}
	return fetched
}
