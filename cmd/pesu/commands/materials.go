package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"pesuacademy/internal/scrapers/pesu"
	"pesuacademy/lib/textutil"
	"pesuacademy/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	materialCourse *string
	materialUnit   *string
	materialType   *string
	downloadType   *string
	downloadOut    *string
	downloadLimit  *int
)

func init() {
	materialCourse = materialsCmd.Flags().String("course", "", "The id of the course the topic belongs to.")
	materialUnit = materialsCmd.Flags().String("unit", "", "The id of the unit the topic belongs to.")
	materialType = materialsCmd.Flags().String("type", pesu.MaterialSlides, "The material type id (2 is slides, 3 is notes).")

	downloadType = downloadCmd.Flags().String("type", pesu.MaterialSlides, "The material type id (2 is slides, 3 is notes).")
	downloadOut = downloadCmd.Flags().String("out", "materials", "The directory to download into.")
	downloadLimit = downloadCmd.Flags().Int("parallel", 4, "How many files to download at once.")

	rootCmd.AddCommand(unitsCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(materialsCmd)
	rootCmd.AddCommand(downloadCmd)
}

// resolveCourse finds a course by code, id or title among the courses of the
// selected semester(s).
func resolveCourse(ctx context.Context, client *pesu.Client, query string) pesu.Course {
	courses, err := client.Courses(ctx, *semester)
	if err != nil {
		serviceutil.Fatal("failed to fetch courses", err)
	}

	var all []pesu.Course
	for _, n := range sortedSemesters(courses) {
		all = append(all, courses[n]...)
	}
	course, ok := pesu.FindCourse(all, query)
	if !ok {
		serviceutil.Fatal("failed to find course", fmt.Errorf("no course matches %q", query))
	}
	if course.ID == "" {
		serviceutil.Fatal("failed to find course", fmt.Errorf("course %s has no id", course.Code))
	}
	return course
}

var unitsCmd = &cobra.Command{
	Use:   "units <course>",
	Short: "Lists the units of a course, the course can be given by code, id or (approximate) title.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := mustClient(cmd.Context())
		defer client.Close()

		course := resolveCourse(cmd.Context(), client, args[0])
		units, err := client.Units(cmd.Context(), course.ID)
		if err != nil {
			serviceutil.Fatal("failed to fetch units", err)
		}
		if *jsonOutput {
			printJSON(units)
			return
		}

		fmt.Printf("%s %s\n", course.Code, course.Title)
		t := newTable(table.Row{"Unit", "ID"})
		for _, u := range units {
			t.AppendRow(table.Row{u.Title, u.ID})
		}
		t.Render()
	},
}

var topicsCmd = &cobra.Command{
	Use:   "topics <unit-id>",
	Short: "Lists the topics of a unit.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := mustClient(cmd.Context())
		defer client.Close()

		topics, err := client.Topics(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to fetch topics", err)
		}
		if *jsonOutput {
			printJSON(topics)
			return
		}

		t := newTable(table.Row{"Topic", "ID", "Course ID", "Unit ID"})
		for _, topic := range topics {
			t.AppendRow(table.Row{topic.Title, topic.ID, topic.CourseID, topic.UnitID})
		}
		t.Render()
	},
}

var materialsCmd = &cobra.Command{
	Use:   "materials <topic-id> --course <id> --unit <id> [--type <n>]",
	Short: "Lists the material links of a topic.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := mustClient(cmd.Context())
		defer client.Close()

		topic := pesu.Topic{
			ID:       args[0],
			CourseID: *materialCourse,
			UnitID:   *materialUnit,
		}
		links, err := client.MaterialLinks(cmd.Context(), topic, *materialType)
		if err != nil {
			serviceutil.Fatal("failed to fetch material links", err)
		}
		if *jsonOutput {
			printJSON(links)
			return
		}

		t := newTable(table.Row{"Title", "PDF", "URL"})
		for _, l := range links {
			t.AppendRow(table.Row{l.Title, l.IsPDF, l.URL})
		}
		t.Render()
	},
}

type downloadJob struct {
	dir  string
	link pesu.MaterialLink
}

// collectDownloads walks every unit and topic of a course and returns the
// material links to download.
func collectDownloads(ctx context.Context, client *pesu.Client, course pesu.Course, materialTypeId, outDir string) ([]downloadJob, error) {
	units, err := client.Units(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	var jobs []downloadJob
	for _, unit := range units {
		unitDir := filepath.Join(outDir, textutil.SafeFilename(unit.Title))
		topics, err := client.Topics(ctx, unit.ID)
		if err != nil {
			return nil, err
		}
		for _, topic := range topics {
			links, err := client.MaterialLinks(ctx, topic, materialTypeId)
			if err != nil {
				return nil, err
			}
			for _, link := range links {
				jobs = append(jobs, downloadJob{dir: unitDir, link: link})
			}
		}
	}
	return jobs, nil
}

// uniquePath appends a counter to a filename that was already taken by
// another download in the same run.
func uniquePath(taken map[string]bool, dir, name string) string {
	path := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]
	for i := 2; taken[path]; i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, i, ext))
	}
	taken[path] = true
	return path
}

// writeFile creates path and fills it with write, a partially written file
// is removed when write fails.
func writeFile(path string, write func(w io.Writer) error) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	err = write(f)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		removeErr := os.Remove(path)
		if removeErr != nil {
			slog.Warn("failed to remove partial download", "file", path, "err", removeErr)
		}
		return err
	}
	return nil
}

func downloadFile(ctx context.Context, client *pesu.Client, link pesu.MaterialLink, path string) error {
	var written int64
	err := writeFile(path, func(w io.Writer) error {
		result, err := client.Download(ctx, link, w, nil)
		written = result.Written
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", link.Title, err)
	}
	slog.Info("downloaded", "file", path, "bytes", written)
	return nil
}

var downloadCmd = &cobra.Command{
	Use:   "download <course> [--type <n>] [--out <dir>] [--parallel <n>]",
	Short: "Downloads every material of a course.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client, _ := mustClient(ctx)
		defer client.Close()

		course := resolveCourse(ctx, client, args[0])
		outDir := filepath.Join(*downloadOut, textutil.SafeFilename(course.Code+" "+course.Title))
		jobs, err := collectDownloads(ctx, client, course, *downloadType, outDir)
		if err != nil {
			serviceutil.Fatal("failed to list materials", err)
		}
		slog.Info("found materials", "course", course.Code, "count", len(jobs))

		taken := map[string]bool{}

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(max(*downloadLimit, 1))
		for _, job := range jobs {
			path := uniquePath(taken, job.dir, pesu.SuggestedFilename(job.link))

			group.Go(func() error {
				return downloadFile(groupCtx, client, job.link, path)
			})
		}
		err = group.Wait()
		if err != nil {
			serviceutil.Fatal("failed to download materials", err)
		}
	},
}
