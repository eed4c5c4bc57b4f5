package dumps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libsync/libsync/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		RemoteBaseURL: "https://dumps.example.org",
		MySQLHost:     "db.internal",
		MySQLPort:     3306,
		MySQLUser:     "loader",
		MySQLPassword: "secret",
		MySQLDatabase: "staging",
	}
}

func TestImporterCommand(t *testing.T) {
	t.Parallel()

	imp := NewImporter(testConfig())

	cmd := imp.command("lib.libbook.sql")
	assert.Equal(t,
		"wget -O - https://dumps.example.org/sql/lib.libbook.sql.gz | gunzip | "+
			"mysql -h db.internal -P 3306 -u loader -p'secret' staging",
		cmd)
}

func TestRunShell(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	out, err := runShell(ctx, "echo loaded")
	require.NoError(t, err)
	assert.Equal(t, "loaded\n", string(out))

	out, err = runShell(ctx, "echo broken pipe >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, string(out), "broken pipe")
}
