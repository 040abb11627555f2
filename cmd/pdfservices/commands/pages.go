package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfservicesflow/internal/pdfcheck"
	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
)

// pageRangesAt parses the i-th entry of a repeated --pages flag. Missing or
// empty entries select every page.
func pageRangesAt(values []string, i int) (pdfservices.PageRanges, error) {
	if i >= len(values) {
		return nil, nil
	}
	return pdfservices.ParsePageRanges(values[i])
}

// checkRangesAt bounds-checks each --pages entry against its input's page
// count. Inputs with an unknown count are skipped.
func checkRangesAt(field string, values []string, pageCounts []int, offset int) error {
	for i, v := range values {
		ranges, err := pdfservices.ParsePageRanges(v)
		if err != nil {
			return err
		}
		if idx := i + offset; idx < len(pageCounts) && pageCounts[idx] > 0 {
			if err := pdfcheck.CheckPageRanges(fmt.Sprintf("%s[%d]", field, i), ranges, pageCounts[idx]); err != nil {
				return err
			}
		}
	}
	return nil
}

func newCombinePDFCommand(a *app) *cobra.Command {
	var pages []string
	cmd := a.jobCommand(jobSpec{
		use:   "combine-pdf <input.pdf> <input.pdf>...",
		short: "Concatenate 2 to 20 PDFs",
		args:  cobra.RangeArgs(2, 20),
		preflight: func(pageCounts []int) error {
			return checkRangesAt("inputs", pages, pageCounts, 0)
		},
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			job := &pdfservices.CombinePDFJob{}
			for i, asset := range in {
				ranges, err := pageRangesAt(pages, i)
				if err != nil {
					return nil, err
				}
				job.Inputs = append(job.Inputs, pdfservices.CombineInput{Input: asset, PageRanges: ranges})
			}
			return job, nil
		},
	})
	cmd.Flags().StringArrayVar(&pages, "pages", nil, "pages to take from each input, in input order (e.g. 1-3,5)")
	return cmd
}

func newSplitPDFCommand(a *app) *cobra.Command {
	var (
		pageCount int
		fileCount int
		ranges    string
	)
	cmd := a.jobCommand(jobSpec{
		use:   "split-pdf <input.pdf>",
		short: "Split a PDF by page count, file count or page ranges",
		args:  cobra.ExactArgs(1),
		preflight: func(pageCounts []int) error {
			return checkRangesAt("pageRanges", nonEmpty(ranges), pageCounts, 0)
		},
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			pr, err := pdfservices.ParsePageRanges(ranges)
			if err != nil {
				return nil, err
			}
			return &pdfservices.SplitPDFJob{Input: in[0], Params: pdfservices.SplitPDFParams{
				PageCount:  pageCount,
				FileCount:  fileCount,
				PageRanges: pr,
			}}, nil
		},
	})
	cmd.Flags().IntVar(&pageCount, "page-count", 0, "pages per output file")
	cmd.Flags().IntVar(&fileCount, "file-count", 0, "number of output files")
	cmd.Flags().StringVar(&ranges, "pages", "", "one output file per range (e.g. 1,2-3,4-)")
	cmd.MarkFlagsMutuallyExclusive("page-count", "file-count", "pages")
	return cmd
}

func nonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}

func newDeletePagesCommand(a *app) *cobra.Command {
	var ranges string
	cmd := a.jobCommand(jobSpec{
		use:   "delete-pages <input.pdf>",
		short: "Delete pages from a PDF",
		args:  cobra.ExactArgs(1),
		preflight: func(pageCounts []int) error {
			return checkRangesAt("pageRanges", nonEmpty(ranges), pageCounts, 0)
		},
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			pr, err := pdfservices.ParsePageRanges(ranges)
			if err != nil {
				return nil, err
			}
			return &pdfservices.DeletePagesJob{Input: in[0], Params: pdfservices.DeletePagesParams{PageRanges: pr}}, nil
		},
	})
	cmd.Flags().StringVar(&ranges, "pages", "", "pages to delete (e.g. 1,3-4)")
	_ = cmd.MarkFlagRequired("pages")
	return cmd
}

func newReorderPagesCommand(a *app) *cobra.Command {
	var ranges string
	cmd := a.jobCommand(jobSpec{
		use:   "reorder-pages <input.pdf>",
		short: "Rewrite a PDF with its pages in a new order",
		args:  cobra.ExactArgs(1),
		preflight: func(pageCounts []int) error {
			return checkRangesAt("pageRanges", nonEmpty(ranges), pageCounts, 0)
		},
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			pr, err := pdfservices.ParsePageRanges(ranges)
			if err != nil {
				return nil, err
			}
			return &pdfservices.ReorderPagesJob{Input: in[0], PageRanges: pr}, nil
		},
	})
	cmd.Flags().StringVar(&ranges, "order", "", "new page order (e.g. 3,1-2,4-)")
	_ = cmd.MarkFlagRequired("order")
	return cmd
}

// layoutCommand builds insert-pages and replace-pages: a base PDF followed by
// the PDFs whose pages go into it at the --at base pages.
func layoutCommand(a *app, use, short string, build func(base pdfservices.Input, items []pdfservices.PageInsertion) pdfservices.Job) *cobra.Command {
	var (
		at    []int
		pages []string
	)
	cmd := a.jobCommand(jobSpec{
		use:   use,
		short: short,
		args:  cobra.MinimumNArgs(2),
		preflight: func(pageCounts []int) error {
			if err := checkRangesAt("pageRanges", pages, pageCounts, 1); err != nil {
				return err
			}
			for i, p := range at {
				if pageCounts[0] > 0 && p > pageCounts[0]+1 {
					return &pdfservices.Error{Kind: pdfservices.KindValidation, Op: "preflight", Field: fmt.Sprintf("at[%d]", i),
						Message: fmt.Sprintf("base page %d is beyond the base document's %d pages", p, pageCounts[0])}
				}
			}
			return nil
		},
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			if len(at) != len(in)-1 {
				return nil, &pdfservices.Error{Kind: pdfservices.KindValidation, Op: "preflight", Field: "at",
					Message: fmt.Sprintf("need one --at per inserted document, got %d for %d", len(at), len(in)-1)}
			}
			var items []pdfservices.PageInsertion
			for i, asset := range in[1:] {
				ranges, err := pageRangesAt(pages, i)
				if err != nil {
					return nil, err
				}
				items = append(items, pdfservices.PageInsertion{Input: asset, BasePage: at[i], PageRanges: ranges})
			}
			return build(in[0], items), nil
		},
	})
	cmd.Flags().IntSliceVar(&at, "at", nil, "base page for each inserted document, in argument order")
	cmd.Flags().StringArrayVar(&pages, "pages", nil, "pages to take from each inserted document (default all)")
	return cmd
}

func newInsertPagesCommand(a *app) *cobra.Command {
	return layoutCommand(a, "insert-pages <base.pdf> <insert.pdf>...", "Insert pages from other PDFs into a base PDF",
		func(base pdfservices.Input, items []pdfservices.PageInsertion) pdfservices.Job {
			return &pdfservices.InsertPagesJob{Base: base, Insertions: items}
		})
}

func newReplacePagesCommand(a *app) *cobra.Command {
	return layoutCommand(a, "replace-pages <base.pdf> <replacement.pdf>...", "Replace pages of a base PDF with pages from other PDFs",
		func(base pdfservices.Input, items []pdfservices.PageInsertion) pdfservices.Job {
			return &pdfservices.ReplacePagesJob{Base: base, Replacements: items}
		})
}

// parseRotation parses "ANGLE:RANGES", e.g. "90:1-3,5".
func parseRotation(s string) (pdfservices.PageRotation, error) {
	angle, ranges, ok := strings.Cut(s, ":")
	if !ok {
		return pdfservices.PageRotation{}, &pdfservices.Error{Kind: pdfservices.KindValidation, Op: "preflight", Field: "rotate",
			Message: fmt.Sprintf("%q is not ANGLE:PAGES", s)}
	}
	deg, err := strconv.Atoi(strings.TrimSpace(angle))
	if err != nil {
		return pdfservices.PageRotation{}, &pdfservices.Error{Kind: pdfservices.KindValidation, Op: "preflight", Field: "rotate",
			Message: fmt.Sprintf("invalid angle %q", angle), Err: err}
	}
	pr, err := pdfservices.ParsePageRanges(ranges)
	if err != nil {
		return pdfservices.PageRotation{}, err
	}
	return pdfservices.PageRotation{Angle: pdfservices.Angle(deg), PageRanges: pr}, nil
}

func newRotatePagesCommand(a *app) *cobra.Command {
	var rotations []string
	cmd := a.jobCommand(jobSpec{
		use:   "rotate-pages <input.pdf>",
		short: "Rotate pages of a PDF",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			var params pdfservices.RotatePagesParams
			for _, r := range rotations {
				rot, err := parseRotation(r)
				if err != nil {
					return nil, err
				}
				params.Rotations = append(params.Rotations, rot)
			}
			return &pdfservices.RotatePagesJob{Input: in[0], Params: params}, nil
		},
	})
	cmd.Flags().StringArrayVar(&rotations, "rotate", nil, "rotation as ANGLE:PAGES, e.g. 90:1-3 (repeatable)")
	_ = cmd.MarkFlagRequired("rotate")
	return cmd
}
