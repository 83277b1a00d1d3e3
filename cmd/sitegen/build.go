package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"codent.ru/codent-web/internal/assembler"
	"codent.ru/codent-web/internal/config"
	"codent.ru/codent-web/internal/dom"
	"codent.ru/codent-web/internal/fragment"
	"codent.ru/codent-web/internal/page"
)

type buildOptions struct {
	public      string
	out         string
	base        string
	jobs        int
	strict      bool
	keepDismiss bool
}

// buildReport summarises one build.
type buildReport struct {
	mu       sync.Mutex
	Pages    []string
	Copied   int
	Failures map[string][]string
}

func (r *buildReport) page(rel string, failed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Pages = append(r.Pages, rel)
	if len(failed) > 0 {
		r.Failures[rel] = failed
	}
}

func (r *buildReport) copied() {
	r.mu.Lock()
	r.Copied++
	r.mu.Unlock()
}

func newBuildCmd(root *rootOptions) *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble every page into an output directory",
		Long: `Assemble every page of the public directory into --out.

Fragment files and assets are copied unchanged. Pages keep working when a
fragment is missing; --strict turns any missing fragment into an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if opts.public != "" {
				cfg.Server.PublicDir = opts.public
			}
			if cmd.Flags().Changed("base") {
				cfg.Site.BasePath = opts.base
			}
			if !opts.keepDismiss {
				// without an endpoint the banner could never be closed, so it is left out
				cfg.Site.Attention.DismissEndpoint = ""
			}
			rep, err := build(cmd.Context(), cfg, opts, root.logger(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "assembled %d page(s), copied %d file(s) into %s\n", len(rep.Pages), rep.Copied, opts.out)
			if len(rep.Failures) > 0 {
				pages := make([]string, 0, len(rep.Failures))
				for p := range rep.Failures {
					pages = append(pages, p)
				}
				sort.Strings(pages)
				for _, p := range pages {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: missing %s\n", p, strings.Join(rep.Failures[p], ", "))
				}
				if opts.strict {
					return fmt.Errorf("%d page(s) assembled with missing fragments", len(rep.Failures))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.public, "public", "", "static site directory (default from config)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "dist", "output directory")
	cmd.Flags().StringVar(&opts.base, "base", "", "base path the site is served under, e.g. /codent-site/")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 4, "pages assembled in parallel")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when any fragment is missing")
	cmd.Flags().BoolVar(&opts.keepDismiss, "keep-dismiss-endpoint", false, "keep the attention banner, posting its dismissal to the configured endpoint")
	return cmd
}

func build(ctx context.Context, cfg config.Config, opts *buildOptions, logger *zap.Logger) (*buildReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(opts.out) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	fsys := os.DirFS(cfg.Server.PublicDir)
	base := "/" + strings.Trim(cfg.Site.BasePath, "/")
	src := fragment.StripPrefix(base, fragment.NewDirSource(fsys))
	asm, err := assembler.New(cfg.Site, src, assembler.WithLogger(logger), assembler.WithBase(base), assembler.WithStaticOutput())
	if err != nil {
		return nil, err
	}

	rep := &buildReport{Failures: map[string][]string{}}
	g, gctx := errgroup.WithContext(ctx)
	if opts.jobs > 0 {
		g.SetLimit(opts.jobs)
	}
	walkErr := fs.WalkDir(fsys, ".", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		dst := filepath.Join(opts.out, filepath.FromSlash(rel))
		if path.Ext(rel) != ".html" || asm.Routes().IsFragment(rel) {
			g.Go(func() error {
				if err := copyFile(fsys, rel, dst); err != nil {
					return err
				}
				rep.copied()
				return nil
			})
			return nil
		}
		g.Go(func() error {
			failed, err := assemblePage(gctx, asm, fsys, base, rel, dst)
			if err != nil {
				return fmt.Errorf("%s: %w", rel, err)
			}
			rep.page(rel, failed)
			return nil
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if walkErr != nil {
		return nil, walkErr
	}
	sort.Strings(rep.Pages)
	return rep, nil
}

func assemblePage(ctx context.Context, asm *assembler.Assembler, fsys fs.FS, base, rel, dst string) ([]string, error) {
	raw, err := fs.ReadFile(fsys, rel)
	if err != nil {
		return nil, err
	}
	doc, err := dom.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	loc := page.ParseLocation(path.Join(base, rel))
	res := asm.Assemble(ctx, page.NewWindow(doc, loc, page.NewMemoryStorage()))

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, err
	}
	return res.Failed, os.WriteFile(dst, buf.Bytes(), 0o644)
}

func copyFile(fsys fs.FS, rel, dst string) error {
	in, err := fsys.Open(rel)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
