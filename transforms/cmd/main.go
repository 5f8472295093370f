// Package main provides the taskgraph_transforms CLI that
// reads job descriptors, pins taskcluster docker images,
// injects the repository environment and writes the
// result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/byte4ever/taskgraph_transforms/ci/params"
	ghres "github.com/byte4ever/taskgraph_transforms/ci/params/github"
	glres "github.com/byte4ever/taskgraph_transforms/ci/params/gitlab"
	"github.com/byte4ever/taskgraph_transforms/jobstream"
	"github.com/byte4ever/taskgraph_transforms/transforms"
	"github.com/byte4ever/taskgraph_transforms/versions"
)

type options struct {
	inFile        string
	outFile       string
	format        string
	packageJSON   string
	goVersionFile string
	paramsFile    string
	fromGit       bool
	gitDir        string
	flagParams    params.Params
	github        ghres.Config
	gitlab        glres.Config
}

func parseFlags() options {
	var opts options

	flag.StringVar(
		&opts.inFile, "infile", "",
		"input jobs YAML file path (stdin if empty)",
	)

	flag.StringVar(
		&opts.outFile, "outfile", "",
		"output file path (stdout if empty)",
	)

	flag.StringVar(
		&opts.format, "format", string(jobstream.FormatYAML),
		"output format: yaml or json",
	)

	flag.StringVar(
		&opts.packageJSON, "package-json",
		versions.DefaultPackageJSON,
		"package manifest holding engines.node",
	)

	flag.StringVar(
		&opts.goVersionFile, "go-version-file",
		versions.DefaultGoVersionFile,
		"file holding the Go version",
	)

	flag.StringVar(
		&opts.paramsFile, "parameters", "",
		"task-graph parameters file (YAML or JSON)",
	)

	flag.BoolVar(
		&opts.fromGit, "from-git", false,
		"read missing parameters from the local git checkout",
	)

	flag.StringVar(
		&opts.gitDir, "git-dir", "",
		"git checkout used by --from-git (cwd if empty)",
	)

	flag.StringVar(
		&opts.flagParams.HeadRepository, "head-repository", "",
		"head repository URL",
	)

	flag.StringVar(
		&opts.flagParams.HeadRef, "head-ref", "",
		"head branch",
	)

	flag.StringVar(
		&opts.flagParams.HeadRev, "head-rev", "",
		"head commit SHA",
	)

	flag.StringVar(
		&opts.github.RepoOwner, "github-owner", "",
		"GitHub repository owner used to resolve head-rev",
	)

	flag.StringVar(
		&opts.github.Repo, "github-repo", "",
		"GitHub repository name used to resolve head-rev",
	)

	flag.StringVar(
		&opts.github.EnterpriseHost, "github-host", "",
		"GitHub Enterprise hostname",
	)

	flag.StringVar(
		&opts.gitlab.Host, "gitlab-host", "",
		"GitLab base URL",
	)

	flag.StringVar(
		&opts.gitlab.Project, "gitlab-project", "",
		"GitLab project path used to resolve head-rev",
	)

	flag.Parse()

	opts.github.AccessToken = os.Getenv("GITHUB_TOKEN")
	opts.gitlab.AccessToken = os.Getenv("GITLAB_TOKEN")

	return opts
}

// loadParams combines the parameter sources. Later
// sources win: file, then local git, then flags. An
// empty head_rev is resolved through the configured
// hosting platform.
func loadParams(
	ctx context.Context,
	opts options,
) (params.Params, error) {
	const errCtx = "loading parameters"

	var pr params.Params

	if opts.paramsFile != "" {
		filePr, err := params.Load(opts.paramsFile)
		if err != nil {
			return pr, fmt.Errorf("%s: %w", errCtx, err)
		}

		pr.Merge(filePr)
	}

	if opts.fromGit {
		gitPr, err := params.FromGit(ctx, opts.gitDir)
		if err != nil {
			return pr, fmt.Errorf("%s: %w", errCtx, err)
		}

		pr.Merge(gitPr)
	}

	pr.Merge(opts.flagParams)

	rr, err := revisionResolver(opts)
	if err != nil {
		return pr, fmt.Errorf("%s: %w", errCtx, err)
	}

	if rr != nil {
		if err := pr.ResolveHeadRev(ctx, rr); err != nil {
			return pr, fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	if err := pr.Validate(); err != nil {
		return pr, fmt.Errorf("%s: %w", errCtx, err)
	}

	return pr, nil
}

// revisionResolver picks the hosting platform from the
// flags. It returns nil when none is configured.
func revisionResolver(
	opts options,
) (params.RevisionResolver, error) {
	switch {
	case opts.github.Repo != "" && opts.gitlab.Project != "":
		return nil, errors.New(
			"only one of --github-repo or" +
				" --gitlab-project may be specified",
		)
	case opts.github.Repo != "":
		rs, err := ghres.NewResolver(opts.github)
		if err != nil {
			return nil, err
		}

		return rs, nil
	case opts.gitlab.Project != "":
		rs, err := glres.NewResolver(opts.gitlab)
		if err != nil {
			return nil, err
		}

		return rs, nil
	default:
		return nil, nil
	}
}

func run() error {
	const errCtx = "taskgraph_transforms"

	opts := parseFlags()
	ctx := context.Background()

	format, err := jobstream.ParseFormat(opts.format)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	vs, err := versions.Load(versions.Sources{
		PackageJSON:   opts.packageJSON,
		GoVersionFile: opts.goVersionFile,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	pr, err := loadParams(ctx, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"transforming jobs",
		"node", vs.Node,
		"go", vs.Go,
		"pg", vs.Postgres,
		"head_ref", pr.HeadRef,
		"head_rev", pr.HeadRev,
	)

	var inReader io.Reader = os.Stdin

	if opts.inFile != "" {
		fi, err := os.Open(opts.inFile) //nolint:gosec // path from CLI flag
		if err != nil {
			return fmt.Errorf(
				"%s: opening input: %w",
				errCtx, err,
			)
		}

		defer fi.Close() //nolint:errcheck // best-effort close

		inReader = fi
	}

	cfg := transforms.Config{
		Params:   pr,
		Versions: vs,
	}

	jobs := transforms.Default().Apply(
		cfg, jobstream.Decode(inReader),
	)

	count, err := writeOutput(opts.outFile, jobs, format)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info("transformed jobs", "count", count)

	return nil
}

// writeOutput encodes jobs to stdout, or to a temporary
// file renamed over outPath once every job succeeded.
func writeOutput(
	outPath string,
	jobs transforms.Jobs,
	format jobstream.Format,
) (int, error) {
	const errCtx = "writing output"

	if outPath == "" {
		count, err := jobstream.Encode(os.Stdout, jobs, format)
		if err != nil {
			return count, fmt.Errorf("%s: %w", errCtx, err)
		}

		return count, nil
	}

	fo, err := os.CreateTemp(
		filepath.Dir(outPath), filepath.Base(outPath)+".*",
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	tmpPath := fo.Name()

	count, err := jobstream.Encode(fo, jobs, format)
	if closeErr := fo.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Rename(tmpPath, outPath)
	}

	if err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup

		return count, fmt.Errorf("%s: %w", errCtx, err)
	}

	return count, nil
}

func main() {
	if err := run(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
