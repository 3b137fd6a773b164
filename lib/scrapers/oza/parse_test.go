package oza

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func docFromString(t *testing.T, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func testExtractor() Extractor {
	return Extractor{Fields: DefaultFieldNames(), Rules: DefaultRules()}
}

const schoolSelectHTML = `
<select id="ctl00_CPH_ddlSeachSchoolID" name="ctl00$CPH$ddlSeachSchoolID">
	<option value=""></option>
	<option value="ALL">全校舎</option>
	<option value="1" selected="selected">本町校</option>
	<option value="17">駅前校</option>
</select>`

func TestSchoolOptions(t *testing.T) {
	e := testExtractor()

	doc := docFromString(t, "<html><body>"+schoolSelectHTML+"</body></html>")
	options := e.SchoolOptions(doc)

	expected := []SchoolOption{
		{ID: "ALL", Label: "全校舎"},
		{ID: "1", Label: "本町校"},
		{ID: "17", Label: "駅前校"},
	}
	if diff := cmp.Diff(expected, options); diff != "" {
		t.Fatal(diff)
	}

	empty := e.SchoolOptions(docFromString(t, "<html><body></body></html>"))
	require.Empty(t, empty)
}

func sessionTableHTML(rows string) string {
	return `<html><body>` + schoolSelectHTML + `
<table id="TblDataList">
	<tr><th colspan="6">日付　出欠管理</th></tr>
	<tr><th>日付区分</th><th>時間帯</th><th>クラス名</th><th>本予定人数</th><th>体験人数</th><th>合計</th></tr>
	` + rows + `
</table></body></html>`
}

func TestParseSessionTable(t *testing.T) {
	e := testExtractor()

	doc := docFromString(t, sessionTableHTML(`
	<tr><td>通常</td><td>1605～</td><td>こどもクラス</td><td>3</td><td>1</td><td>4</td></tr>
	<tr><td>通常</td><td>1700～</td><td>こどもクラス</td><td>0</td><td>0</td><td>0</td></tr>
	<tr><td>通常</td><td>枠のみ</td><td>未定</td><td>0</td><td>0</td><td>0</td></tr>
	<tr><td>malformed</td><td>row</td><td>with</td><td>five</td><td>cells</td></tr>
	`))

	rows := e.ParseSessionTable(doc)
	expected := []AttendanceRow{
		{
			Limit: "通常", StartTime: "16:05", ClassName: "こどもクラス",
			ExpectedCount: 3, TrialCount: 1, HasClass: true, SchoolName: "本町校",
		},
		{
			Limit: "通常", StartTime: "17:00", ClassName: "こどもクラス",
			HasClass: false, SchoolName: "本町校",
		},
		{
			Limit: "通常", StartTime: "", ClassName: "未定",
			HasClass: false, SchoolName: "本町校",
		},
	}
	if diff := cmp.Diff(expected, rows); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseSessionTableHeadersOnly(t *testing.T) {
	e := testExtractor()

	doc := docFromString(t, sessionTableHTML(""))
	require.Empty(t, e.ParseSessionTable(doc))

	noTable := docFromString(t, "<html><body><p>nothing here</p></body></html>")
	require.Empty(t, e.ParseSessionTable(noTable))
}

func TestNormalizeStartLabel(t *testing.T) {
	cases := []struct {
		label    string
		expected string
	}{
		{"1605～", "16:05"},
		{"900", "09:00"},
		{"17:00", "17:00"},
		{"23:45", "23:45"},
		{"～", ""},
		{"12", ""},
		{"", ""},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, normalizeStartLabel(test.label), "label %q", test.label)
	}
}

func TestExtractDetailLinks(t *testing.T) {
	e := testExtractor()
	base, err := url.Parse("https://www.o-za.jp/oza/AdminArea/")
	require.NoError(t, err)

	doc := docFromString(t, `<html><body>
<table id="TblDataList">
	<tr><th colspan="6">日付　出欠管理</th></tr>
	<tr><td colspan="6">授業予定はありません</td></tr>
</table>
<table id="TblDataList">
	<tr><th colspan="6">日付　出欠管理</th></tr>
	<tr><th>日付区分</th><th>時間帯</th><th>クラス名</th><th>本予定人数</th><th>体験人数</th><th>合計</th></tr>
	<tr><td>通常</td><td>1605～</td><td><a href="#" onclick="callPlanDetail('2','4200','1','20251001','1');">そろばんA</a></td><td>3</td><td>1</td><td>4</td></tr>
	<tr><td>通常</td><td>1700～</td><td><a href="toDayAttendanceDetail.aspx?crsIdx=9">そろばんB</a></td><td>2</td><td>0</td><td>2</td></tr>
	<tr><td>通常</td><td>1755～</td><td><a href="/oza/AdminArea/toDayAttendanceDetail.aspx?crsIdx=5">そろばんC</a></td><td>1</td><td>0</td><td>1</td></tr>
	<tr><td>通常</td><td>1850～</td><td><a href="toDayAttendanceDetail.aspx?crsIdx=7" onclick="callPlanDetail('','','','','');">そろばんD</a></td><td>1</td><td>0</td><td>1</td></tr>
	<tr><td>通常</td><td>1945～</td><td><a href="#">リンクなし</a></td><td>1</td><td>0</td><td>1</td></tr>
</table>
<table id="TblDataList">
	<tr><th>講師</th><th>名前</th></tr>
	<tr><td>ID:1</td><td>someone</td></tr>
</table>
</body></html>`)

	links := e.ExtractDetailLinks(doc, base)
	expected := []DetailLink{
		{ClassName: "そろばんA", URL: "https://www.o-za.jp/oza/AdminArea/toDayAttendanceDetail.aspx?crsIdx=2&cgpIdx=4200&sclIdx=1&planDate=20251001&sttTime=1"},
		{ClassName: "そろばんB", URL: "https://www.o-za.jp/oza/AdminArea/toDayAttendanceDetail.aspx?crsIdx=9"},
		{ClassName: "そろばんC", URL: "https://www.o-za.jp/oza/AdminArea/toDayAttendanceDetail.aspx?crsIdx=5"},
		// an onclick with empty arguments is no plan call, the href wins
		{ClassName: "そろばんD", URL: "https://www.o-za.jp/oza/AdminArea/toDayAttendanceDetail.aspx?crsIdx=7"},
	}
	if diff := cmp.Diff(expected, links); diff != "" {
		t.Fatal(diff)
	}
}

// the inline call and a relative href naming the same plan must land
// on the same canonical URL
func TestDetailLinkFormsAgree(t *testing.T) {
	e := testExtractor()
	base, err := url.Parse("https://www.o-za.jp/oza/AdminArea/")
	require.NoError(t, err)

	fromCall, ok := e.resolvePlanCall(base, "callPlanDetail('2','4200','1','20251001','1');")
	require.True(t, ok)

	fromHref, ok := resolveHref(base, "toDayAttendanceDetail.aspx?crsIdx=2&cgpIdx=4200&sclIdx=1&planDate=20251001&sttTime=1")
	require.True(t, ok)

	require.Equal(t, fromCall, fromHref)
}

const classDetailHTML = `<html><body>
<span id="ctl00_CPH_lblClassGroupName">そろばんA</span>
<span id="ctl00_CPH_lblPlanDate">2025/10/01</span>
<span id="ctl00_CPH_lblStartRealTime">16:05～16:55</span>
<span id="ctl00_CPH_lblSchoolName">本町校</span>
<table id="TblDataList">
	<tr><th>区分</th><th>ID</th><th>名前</th><th>出欠</th><th>状態</th><th>交通費</th><th>備考</th></tr>
	<tr><th>講師 1</th><td>ID:8211256</td><td>竹内 真奈美</td><td><input type="checkbox" checked="checked"/></td><td>出席</td><td>0</td><td>直行</td></tr>
</table>
<table id="TblDataList">
	<tr><th>No</th><th>学年</th><th>生徒ID</th><th>名前</th><th>出欠</th><th>状態</th><th>a</th><th>b</th><th>備考</th><th>c</th></tr>
	<tr><td>1</td><td>小3</td><td>1001</td><td>山田 太郎</td><td><input type="checkbox" checked="checked"/></td><td>出席</td><td></td><td></td><td>振替</td><td></td></tr>
	<tr><td>2</td><td>小4</td><td>1002</td><td>佐藤 花子</td><td><input type="checkbox" checked="checked"/></td><td>出席</td><td></td><td></td><td></td><td></td></tr>
	<tr><td>3</td><td>小2</td><td>1003</td><td>鈴木 一郎</td><td><input type="checkbox"/></td><td>欠席</td><td></td><td></td><td></td><td></td></tr>
	<tr><td>4</td><td>小5</td><td>1004</td><td>田中 幸子</td><td><input type="checkbox"/></td><td></td><td></td><td></td><td></td><td></td></tr>
	<tr><td>too</td><td>short</td></tr>
</table>
</body></html>`

func TestParseClassDetail(t *testing.T) {
	e := testExtractor()
	rec := e.ParseClassDetail(docFromString(t, classDetailHTML))

	require.Equal(t, "そろばんA", rec.ClassName)
	require.Equal(t, "2025/10/01", rec.Date)
	require.Equal(t, "16:05～16:55", rec.StartTime)
	require.Equal(t, "本町校", rec.SchoolName)

	require.Equal(t, "8211256", rec.TeacherID)
	require.Equal(t, "竹内 真奈美", rec.TeacherName)
	require.Equal(t, "出席", rec.TeacherAttendance)
	require.Equal(t, "直行", rec.TeacherMemo)

	// the substitution row counts toward the total and the
	// substitution bucket, never the regular bucket
	require.Equal(t, 2, rec.AttendanceCount)
	require.Equal(t, 1, rec.AttendanceCountSubstitution)
	require.Equal(t, 1, rec.AttendanceCountRegular)
	require.Equal(t, 1, rec.AbsentCount)
	require.Equal(t, rec.AttendanceCount, rec.AttendanceCountRegular+rec.AttendanceCountSubstitution)

	require.Len(t, rec.Students, 4)
	require.Equal(t, "山田 太郎", rec.Students[0].Name)
	require.Equal(t, "1001", rec.Students[0].ID)
	require.True(t, rec.Students[0].Attended)
	require.Equal(t, "振替", rec.Students[0].Memo)
	require.False(t, rec.Students[3].Attended)
}

func TestParseClassDetailMissingElements(t *testing.T) {
	e := testExtractor()
	rec := e.ParseClassDetail(docFromString(t, "<html><body><p>garbage</p></body></html>"))

	require.Equal(t, ClassDetailRecord{}, rec)
}

func TestParseClassDetailTeacherFallbackRow(t *testing.T) {
	e := testExtractor()
	rec := e.ParseClassDetail(docFromString(t, `<html><body>
<table id="TblDataList">
	<tr><th>区分</th><th>a</th><th>b</th><th>c</th></tr>
	<tr><th>講師 1</th><td>×</td><td>-</td><td>竹内 真奈美</td></tr>
</table>
</body></html>`))

	require.Empty(t, rec.TeacherID)
	require.Equal(t, "竹内 真奈美", rec.TeacherName)
}
