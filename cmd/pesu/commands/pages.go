package commands

import (
	"fmt"
	"strings"
	"time"

	"pesuacademy/internal/scrapers/pesu"
	"pesuacademy/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(attendanceCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(announcementsCmd)
	rootCmd.AddCommand(seatingCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Checks that the configured credentials work and lists the semesters of the account.",
	Run: func(cmd *cobra.Command, args []string) {
		client, cfg := mustClient(cmd.Context())
		defer client.Close()

		semesters := client.Session().SemesterIDs()
		if *jsonOutput {
			printJSON(jsonSemesters(semesters))
			return
		}

		fmt.Printf("logged in as %s\n", cfg.Username)
		t := newTable(table.Row{"Semester", "ID"})
		for _, n := range sortedSemesters(semesters) {
			t.AppendRow(table.Row{n, semesters[n]})
		}
		t.Render()
	},
}

var coursesCmd = &cobra.Command{
	Use:   "courses [--semester <n>]",
	Short: "Lists the courses of a semester (or every semester).",
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := mustClient(cmd.Context())
		defer client.Close()

		courses, err := client.Courses(cmd.Context(), *semester)
		if err != nil {
			serviceutil.Fatal("failed to fetch courses", err)
		}
		if *jsonOutput {
			printJSON(jsonSemesters(courses))
			return
		}

		t := newTable(table.Row{"Semester", "Code", "Title", "Type", "Status", "ID"})
		for _, n := range sortedSemesters(courses) {
			for _, c := range courses[n] {
				t.AppendRow(table.Row{n, c.Code, c.Title, c.Type, c.Status, c.ID})
			}
		}
		t.Render()
	},
}

var attendanceCmd = &cobra.Command{
	Use:   "attendance [--semester <n>]",
	Short: "Shows the attendance of a semester (or every semester).",
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := mustClient(cmd.Context())
		defer client.Close()

		attendance, err := client.Attendance(cmd.Context(), *semester)
		if err != nil {
			serviceutil.Fatal("failed to fetch attendance", err)
		}
		if *jsonOutput {
			printJSON(jsonSemesters(attendance))
			return
		}

		t := newTable(table.Row{"Semester", "Code", "Title", "Attendance"})
		for _, n := range sortedSemesters(attendance) {
			for _, c := range attendance[n] {
				t.AppendRow(table.Row{n, c.Code, c.Title, c.Attendance})
			}
		}
		t.Render()
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results --semester <n>",
	Short: "Shows the results of a semester.",
	Run: func(cmd *cobra.Command, args []string) {
		if *semester == pesu.AllSemesters {
			serviceutil.Fatal("results needs a semester", fmt.Errorf("--semester was not given"))
		}
		client, _ := mustClient(cmd.Context())
		defer client.Close()

		result, err := client.Results(cmd.Context(), *semester)
		if err != nil {
			serviceutil.Fatal("failed to fetch results", err)
		}
		if *jsonOutput {
			printJSON(result)
			return
		}

		credits := "N/A"
		if result.Credits != nil {
			credits = fmt.Sprintf("%s/%s", result.Credits.Earned, result.Credits.Total)
		}
		fmt.Printf("SGPA: %s, credits: %s\n", orNA(result.SGPA), credits)

		t := newTable(table.Row{"Code", "Title", "Assessment", "Marks", "Total"})
		for _, c := range result.Courses {
			if len(c.Assessments) == 0 {
				t.AppendRow(table.Row{c.Code, c.Title, "", "", ""})
				continue
			}
			for _, a := range c.Assessments {
				t.AppendRow(table.Row{c.Code, c.Title, a.Name, a.Marks, a.Total})
			}
		}
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, AutoMerge: true},
			{Number: 2, AutoMerge: true},
		})
		t.Render()
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Shows the student profile.",
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := mustClient(cmd.Context())
		defer client.Close()

		profile, err := client.Profile(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch profile", err)
		}
		if *jsonOutput {
			printJSON(profile)
			return
		}

		p := profile.Personal
		t := newTable(table.Row{"Field", "Value"})
		t.AppendRows([]table.Row{
			{"Name", p.Name},
			{"PESU ID", p.PESUID},
			{"SRN", p.SRN},
			{"Program", p.Program},
			{"Branch", p.Branch},
			{"Semester", p.Semester},
			{"Section", p.Section},
			{"Email", p.Email},
			{"Contact", p.Contact},
			{"Date of birth", profile.OtherInfo.DOB},
			{"Blood group", profile.OtherInfo.BloodGroup},
			{"Father", profile.Parents.Father.Name},
			{"Mother", profile.Parents.Mother.Name},
			{"Present address", profile.Address.Present},
		})
		t.Render()
	},
}

var announcementsCmd = &cobra.Command{
	Use:   "announcements",
	Short: "Lists the announcements on the portal.",
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := mustClient(cmd.Context())
		defer client.Close()

		announcements, err := client.Announcements(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch announcements", err)
		}
		if *jsonOutput {
			printJSON(announcements)
			return
		}

		t := newTable(table.Row{"Date", "Title", "Content", "Attachments"})
		for _, a := range announcements {
			t.AppendRow(table.Row{
				a.Date.Format(time.DateOnly),
				a.Title,
				a.Content,
				strings.Join(a.Attachments, "\n"),
			})
		}
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 3, WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		})
		t.Render()
	},
}

var seatingCmd = &cobra.Command{
	Use:   "seating",
	Short: "Shows the seating information of upcoming tests.",
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := mustClient(cmd.Context())
		defer client.Close()

		seating, err := client.SeatingInfo(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch seating info", err)
		}
		if *jsonOutput {
			printJSON(seating)
			return
		}
		if len(seating) == 0 {
			fmt.Println("no seating information is available")
			return
		}

		t := newTable(table.Row{"Test", "Course", "Date", "Time", "Terminal", "Block"})
		for _, s := range seating {
			t.AppendRow(table.Row{s.Name, s.CourseCode, s.Date, s.Time, s.Terminal, s.Block})
		}
		t.Render()
	},
}
