// Package dumps loads remote table dumps into the staging store by
// piping download, decompression and bulk load through the shell.
package dumps

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/libsync/libsync/pkg/config"
)

// ImportError reports a non-zero exit from the import pipeline along
// with whatever the pipeline printed, which is the only diagnostic the
// external tools give us.
type ImportError struct {
	Filename string
	Output   string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import pipeline failed for %s", e.Filename)
}

type Importer struct {
	cfg *config.Config
}

func NewImporter(cfg *config.Config) *Importer {
	return &Importer{cfg: cfg}
}

// command builds the download -> decompress -> bulk-load pipeline for
// one dump file. The dump itself carries DROP TABLE IF EXISTS + CREATE
// TABLE statements, so replaying it replaces the staged table in place.
func (imp *Importer) command(filename string) string {
	return fmt.Sprintf(
		"wget -O - %s/sql/%s.gz | gunzip | mysql -h %s -P %d -u %s -p'%s' %s",
		imp.cfg.RemoteBaseURL,
		filename,
		imp.cfg.MySQLHost,
		imp.cfg.MySQLPort,
		imp.cfg.MySQLUser,
		imp.cfg.MySQLPassword,
		imp.cfg.MySQLDatabase,
	)
}

// Import runs the pipeline for one dump file. A non-zero exit status
// yields an *ImportError carrying the captured output.
func (imp *Importer) Import(ctx context.Context, filename string) error {
	out, err := runShell(ctx, imp.command(filename))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ImportError{Filename: filename, Output: string(out)}
		}
		return errors.WithStack(err)
	}

	return nil
}

func runShell(ctx context.Context, command string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	return cmd.CombinedOutput()
}
