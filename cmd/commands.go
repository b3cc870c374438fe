package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/0x0BSoD/feedMaker/internal/feed"
	"github.com/0x0BSoD/feedMaker/internal/model"
	"github.com/0x0BSoD/feedMaker/internal/pipeline"
	"github.com/0x0BSoD/feedMaker/internal/tasklist"
)

const (
	previewItems = 5
	titleWidth   = 60
)

func (a *app) indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <url> [name]",
		Short: "Build a feed of every bulletin linked from an index page",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSingle(cmd, pipeline.ModeIndex, args)
		},
	}
}

func (a *app) pageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "page <url> [name]",
		Short: "Build a one-item feed describing a single page",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSingle(cmd, pipeline.ModePage, args)
		},
	}
}

func (a *app) batchCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "batch <file.csv|file.xlsx>",
		Short: "Build one feed per row of a list (URL in column A, optional name in column B)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := pipeline.ParseMode(mode)
			if err != nil {
				return err
			}

			tasks, err := tasklist.Read(args[0])
			if err != nil {
				return err
			}

			p, err := a.newPipeline()
			if err != nil {
				return err
			}

			sum := p.Batch(cmd.Context(), tasks, m)
			printSummary(cmd.OutOrStdout(), sum)

			if len(sum.Failed) > 0 {
				return fmt.Errorf("%w: %d of %d", errRowsFailed, len(sum.Failed), len(tasks))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(pipeline.ModeIndex), "index or page")

	return cmd
}

func (a *app) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file.xml>",
		Short: "Parse a generated feed and print what it contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rep, err := feed.Inspect(f, time.Now())
			if err != nil {
				return err
			}

			printReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
}

func (a *app) runSingle(cmd *cobra.Command, mode pipeline.Mode, args []string) error {
	var name string
	if len(args) > 1 {
		name = args[1]
	}

	p, err := a.newPipeline()
	if err != nil {
		return err
	}

	run := p.Index
	if mode == pipeline.ModePage {
		run = p.Page
	}

	res, err := run(cmd.Context(), args[0], name)
	if err != nil {
		return errors.New(pipeline.Reason(err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%d items)\n", res.Path, len(res.Channel.Items))
	printItems(out, res.Channel.Items)

	return nil
}

func printItems(w io.Writer, items []model.Bulletin) {
	for i, it := range items {
		if i == previewItems {
			fmt.Fprintf(w, "  ... %d more\n", len(items)-previewItems)
			return
		}
		fmt.Fprintf(w, "  %s  %s\n", it.Published.Format(time.DateOnly), runewidth.Truncate(it.Title, titleWidth, "..."))
	}
}

func printSummary(w io.Writer, sum pipeline.Summary) {
	fmt.Fprintf(w, "ok: %d  failed: %d\n", len(sum.OK), len(sum.Failed))

	for _, o := range sum.OK {
		fmt.Fprintf(w, "  row %-4d %s\n", o.Task.Row, o.Path)
	}
	for _, o := range sum.Failed {
		fmt.Fprintf(w, "  row %-4d %s  %s\n", o.Task.Row, runewidth.Truncate(o.Task.URL, titleWidth, "..."), o.Reason)
	}
}

func printReport(w io.Writer, rep *feed.Report) {
	fmt.Fprintf(w, "title:         %s\n", rep.Title)
	fmt.Fprintf(w, "link:          %s\n", rep.Link)
	fmt.Fprintf(w, "description:   %s\n", runewidth.Truncate(rep.Description, titleWidth, "..."))
	fmt.Fprintf(w, "lastBuildDate: %s\n", rep.LastBuild)
	fmt.Fprintf(w, "items:         %d (%d with a page date)\n", len(rep.Items), rep.DatedItems)
	fmt.Fprintf(w, "category:      %t\n", rep.HasCategory)
	fmt.Fprintf(w, "author:        %t\n", rep.HasAuthor)

	for i, it := range rep.Items {
		if i == previewItems {
			break
		}
		title := runewidth.FillRight(runewidth.Truncate(it.Title, titleWidth, "..."), titleWidth)
		fmt.Fprintf(w, "  %s  %s\n", title, it.Published)
	}
}
