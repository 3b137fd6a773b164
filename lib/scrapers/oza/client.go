package oza

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"oza-scraper/lib/telemetry"

	"dario.cat/mergo"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("scrapers/oza")

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Page is one received page: its final URL after redirects, the
// parsed document, and the hidden state to carry into the next
// submission against the same logical page.
type Page struct {
	URL   string
	Body  string
	Doc   *goquery.Document
	State SessionState
}

type Client struct {
	Extractor
	BaseURL       *url.URL
	LoginURL      string
	AttendanceURL string
	ClockURL      string
	Http          *resty.Client
}

type ClientOptions struct {
	// BaseURL is the admin-area directory, trailing slash included;
	// relative detail links resolve against it.
	BaseURL       string
	LoginURL      string
	AttendanceURL string
	ClockURL      string
	UserAgent     string
	// zero-valued entries fall back to the portal's current names
	Fields FieldNames
	Rules  Rules
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseURL, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	fields := opts.Fields
	err = mergo.Merge(&fields, DefaultFieldNames())
	if err != nil {
		return nil, err
	}
	rules := opts.Rules
	err = mergo.Merge(&rules, DefaultRules())
	if err != nil {
		return nil, err
	}

	attendanceURL := opts.AttendanceURL
	if attendanceURL == "" {
		attendanceURL = opts.BaseURL + "toDayAttendanceSeach.aspx"
	}
	clockURL := opts.ClockURL
	if clockURL == "" {
		clockURL = opts.BaseURL + "ClockInOut.aspx"
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	client.SetHeader("user-agent", ua)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseURL.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/oza/http")

	return &Client{
		Extractor:     Extractor{Fields: fields, Rules: rules},
		BaseURL:       baseURL,
		LoginURL:      opts.LoginURL,
		AttendanceURL: attendanceURL,
		ClockURL:      clockURL,
		Http:          client,
	}, nil
}

func newPage(res *resty.Response) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return Page{}, err
	}
	finalURL := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}
	return Page{
		URL:   finalURL,
		Body:  string(res.Body()),
		Doc:   doc,
		State: ExtractHiddenFields(doc),
	}, nil
}

// OpenPage is an authenticated GET. Non-2xx is an error; the caller
// decides which crawl unit that failure kills.
func (c *Client) OpenPage(ctx context.Context, pageURL string) (Page, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return Page{}, err
	}
	if res.IsError() {
		return Page{}, fmt.Errorf("GET %s: %s", pageURL, res.Status())
	}
	return newPage(res)
}

// Submit performs one postback: the carried state merged with the
// action's event designator and overrides. The returned Page has the
// hidden state re-extracted from the new content; callers never get
// to skip that step.
func (c *Client) Submit(ctx context.Context, pageURL string, state SessionState, action NavigationAction) (Page, error) {
	ctx, span := tracer.Start(ctx, "client:Submit", trace.WithAttributes(
		attribute.String("event_target", action.EventTarget),
	))
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(state.merged(action)).
		Post(pageURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "postback failed")
		return Page{}, err
	}
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
		return Page{}, fmt.Errorf("POST %s: %s", pageURL, res.Status())
	}
	return newPage(res)
}

// Login submits the login postback and judges success heuristically:
// either a logout marker shows up in the response or the final URL
// landed inside the admin area. A false return is a heuristic miss,
// not an error; the heuristic is known to be imperfect and the crawl
// continues regardless.
func (c *Client) Login(ctx context.Context, username, password string) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	page, err := c.OpenPage(ctx, c.LoginURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return false, err
	}

	next, err := c.Submit(ctx, c.LoginURL, page.State, NavigationAction{
		EventTarget: c.Fields.LoginButton,
		Form: map[string]string{
			c.Fields.Username: username,
			c.Fields.Password: password,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login postback failed")
		return false, err
	}

	ok := strings.Contains(next.URL, c.Rules.AdminAreaPath)
	for _, marker := range c.Rules.LogoutMarkers {
		if marker != "" && strings.Contains(next.Body, marker) {
			ok = true
			break
		}
	}
	span.SetAttributes(attribute.Bool("login_heuristic", ok))
	return ok, nil
}

// EndShift clicks the clock-out control, looking for it on the clock
// page first and the attendance page second. Purely advisory: absent
// on both pages means (false, nil), nothing here is fatal.
func (c *Client) EndShift(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:EndShift")
	defer span.End()

	postURL := c.ClockURL
	page, err := c.OpenPage(ctx, c.ClockURL)
	if err != nil || page.Doc.Find("#"+c.Fields.WorkEndID).Length() == 0 {
		page, err = c.OpenPage(ctx, c.AttendanceURL)
		if err != nil {
			span.RecordError(err)
			return false, err
		}
		if page.Doc.Find("#"+c.Fields.WorkEndID).Length() == 0 {
			span.AddEvent("work-end control not found")
			return false, nil
		}
		postURL = c.AttendanceURL
	}

	_, err = c.Submit(ctx, postURL, page.State, NavigationAction{
		EventTarget: c.Fields.WorkEndTarget,
	})
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	return true, nil
}

// SelectCourse mimics changing the brand dropdown, which triggers its
// own postback refreshing the campus selector.
func (c *Client) SelectCourse(ctx context.Context, page Page, courseID int) (Page, error) {
	return c.Submit(ctx, c.AttendanceURL, page.State, NavigationAction{
		EventTarget: c.Fields.CourseSelect,
		Form: map[string]string{
			c.Fields.CourseSelect: strconv.Itoa(courseID),
			c.Fields.GroupIndex:   "ALL",
		},
	})
}

// SearchDay sets date/course/school and clicks the search button.
// `state` must be the state returned by the previous submission
// against the attendance page.
func (c *Client) SearchDay(ctx context.Context, state SessionState, day time.Time, courseID int, schoolID string) (Page, error) {
	return c.Submit(ctx, c.AttendanceURL, state, NavigationAction{
		EventTarget: c.Fields.SearchButton,
		Form: map[string]string{
			c.Fields.TargetDate:   day.Format("2006/01/02"),
			c.Fields.CourseSelect: strconv.Itoa(courseID),
			c.Fields.SchoolSelect: schoolID,
			c.Fields.GroupIndex:   "ALL",
		},
	})
}
