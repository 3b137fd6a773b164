package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"oza-scraper/lib/configutil"
	"oza-scraper/lib/scrapers/oza"
	"oza-scraper/services/attendance"

	"dario.cat/mergo"
	"github.com/spf13/cobra"
)

type WebhookConfig struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key"`
}

type Config struct {
	BaseURL       string         `json:"base_url"`
	LoginURL      string         `json:"login_url"`
	AttendanceURL string         `json:"attendance_url"`
	ClockURL      string         `json:"clock_url"`
	Username      string         `json:"username"`
	Password      string         `json:"password"`
	CourseIDs     string         `json:"course_ids"`
	UserAgent     string         `json:"user_agent"`
	Fields        oza.FieldNames `json:"fields"`
	Rules         oza.Rules      `json:"rules"`
	Webhook       WebhookConfig  `json:"webhook"`
}

func defaultConfig() Config {
	return Config{
		BaseURL:   "https://www.o-za.jp/oza/AdminArea/",
		LoginURL:  "https://www.o-za.jp/oza/AdminLogin.aspx",
		CourseIDs: "2,145",
	}
}

var scrapeFlags struct {
	config       *string
	month        *string
	schoolIDs    *string
	courseIDs    *string
	out          *string
	skipWorkEnd  *bool
	fetchDetails *bool
	gasWebhook   *string
	gasAPIKey    *string
}

func init() {
	f := scrapeCmd.Flags()
	scrapeFlags.config = f.String("config", "config.json5", "path to the config file")
	scrapeFlags.month = f.String("month", "auto", "target month, YYYY-MM or YYYYMM; auto = previous month")
	scrapeFlags.schoolIDs = f.String("school-ids", "auto", `school ids, e.g. "1,17,20"; auto = all from the campus selector`)
	scrapeFlags.courseIDs = f.String("course-ids", "", `course (brand) ids, e.g. "2,145"; empty = config value`)
	scrapeFlags.out = f.String("out", "", "output xlsx path; empty = attendance_sessions_<yyyymm>.xlsx")
	scrapeFlags.skipWorkEnd = f.Bool("skip-workend", false, "do not click the clock-out button after login")
	scrapeFlags.fetchDetails = f.Bool("fetch-details", false, "fetch each class's detail page (teacher, per-student attendance)")
	scrapeFlags.gasWebhook = f.String("gas-webhook", "", "webhook URL to push prepared teacher rows to")
	scrapeFlags.gasAPIKey = f.String("gas-api-key", "", "API key the webhook validates")
	rootCmd.AddCommand(scrapeCmd)
}

func parseIntList(csv string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func parseStringList(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config](*scrapeFlags.config)
	if os.IsNotExist(err) {
		slog.Info("no config file found, using defaults", "path", *scrapeFlags.config)
	} else if err != nil {
		fatal("failed to read config", err)
	}
	if err := mergo.Merge(&cfg, defaultConfig()); err != nil {
		fatal("failed to apply config defaults", err)
	}

	cfg.Username = configutil.Env("OZA_USERNAME", cfg.Username)
	cfg.Password = configutil.Env("OZA_PASSWORD", cfg.Password)
	cfg.CourseIDs = configutil.Env("OZA_COURSE_IDS", cfg.CourseIDs)
	cfg.Webhook.URL = configutil.Env("GAS_WEBHOOK", cfg.Webhook.URL)
	cfg.Webhook.APIKey = configutil.Env("GAS_API_KEY", cfg.Webhook.APIKey)
	return cfg
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Walks the attendance pages for a month and exports/pushes the results.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()

		month := attendance.ResolveMonth(*scrapeFlags.month)
		from, to, err := attendance.MonthRange(month)
		if err != nil {
			fatal("invalid --month", err)
		}
		slog.Info("target month", "month", month)

		courseCSV := cfg.CourseIDs
		if *scrapeFlags.courseIDs != "" {
			courseCSV = *scrapeFlags.courseIDs
		}
		courseIDs, err := parseIntList(courseCSV)
		if err != nil {
			fatal("invalid course ids", err)
		}
		slog.Info("target courses", "course_ids", courseIDs)

		var schoolIDs []string
		if !strings.EqualFold(strings.TrimSpace(*scrapeFlags.schoolIDs), "auto") {
			schoolIDs = parseStringList(*scrapeFlags.schoolIDs)
		}

		webhookURL := *scrapeFlags.gasWebhook
		if webhookURL == "" {
			webhookURL = cfg.Webhook.URL
		}
		apiKey := *scrapeFlags.gasAPIKey
		if apiKey == "" {
			apiKey = cfg.Webhook.APIKey
		}
		// push preconditions are checked before the first request goes
		// out, a crawl that cannot deliver is not worth running
		if webhookURL != "" {
			if apiKey == "" {
				fatal("webhook push requires an API key", fmt.Errorf("set GAS_API_KEY or --gas-api-key"))
			}
			if !*scrapeFlags.fetchDetails {
				fatal("webhook push requires class details", fmt.Errorf("pass --fetch-details"))
			}
		}

		client, err := oza.NewClient(ctx, oza.ClientOptions{
			BaseURL:       cfg.BaseURL,
			LoginURL:      cfg.LoginURL,
			AttendanceURL: cfg.AttendanceURL,
			ClockURL:      cfg.ClockURL,
			UserAgent:     cfg.UserAgent,
			Fields:        cfg.Fields,
			Rules:         cfg.Rules,
		})
		if err != nil {
			fatal("failed to initialize client", err)
		}

		ok, err := client.Login(ctx, cfg.Username, cfg.Password)
		if err != nil {
			fatal("login request failed", err)
		}
		if !ok {
			// the heuristic misses on some portal skins; keep going
			slog.Error("login success heuristic failed, continuing anyway")
		}

		if !*scrapeFlags.skipWorkEnd {
			clicked, err := client.EndShift(ctx)
			if err != nil {
				slog.Warn("clock-out attempt failed", "err", err)
			} else if !clicked {
				slog.Info("clock-out control not present, skipped")
			}
		}

		crawler := attendance.Crawler{
			Client:      client,
			Pause:       200 * time.Millisecond,
			DetailPause: 300 * time.Millisecond,
		}
		result := crawler.Crawl(ctx, attendance.Params{
			CourseIDs:    courseIDs,
			SchoolIDs:    schoolIDs,
			From:         from,
			To:           to,
			FetchDetails: *scrapeFlags.fetchDetails,
		})

		active := attendance.AggregateActiveSlots(result.Rows)
		final := attendance.FinalSlots(active)

		outPath := *scrapeFlags.out
		if outPath == "" {
			outPath = fmt.Sprintf("attendance_sessions_%s.xlsx", strings.ReplaceAll(month, "-", ""))
		}
		if err := attendance.WriteWorkbook(outPath, result, active, final); err != nil {
			fatal("failed to write workbook", err)
		}
		slog.Info("exported workbook", "path", outPath,
			"rows", len(result.Rows), "details", len(result.Details), "slots", len(final))

		attendance.PrintSummary(os.Stdout, final)

		if webhookURL != "" {
			prepared := attendance.PrepareDetailRows(result.Details, client.Rules)
			pusher := attendance.NewPusher(webhookURL, apiKey)
			if err := pusher.Push(ctx, prepared); err != nil {
				fatal("webhook push failed", err)
			}
		}
	},
}
