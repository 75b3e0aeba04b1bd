package core

import (
	"os"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"

	"dbcgo/dbc/db"
	"dbcgo/dbc/parse"
)

var coreLog *log.Entry

// Databases holds one resolved database per configured DBC file, in config
// order. Trees keeps the matching unresolved parse trees for diagnostics.
var Databases []*db.Database
var Trees []*parse.File

// LoadDatabases parses and resolves every configured DBC file. Any failure
// aborts the whole load; a half-loaded database set is never published.
func LoadDatabases() error {
	if len(Config.Database.Files) == 0 {
		return errors.New("no dbc files configured")
	}

	var dbs []*db.Database
	var trees []*parse.File
	for _, path := range Config.Database.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "failed to read dbc file")
		}

		tree, err := parse.ParseString(string(data))
		if err != nil {
			return errors.Wrapf(err, "failed to parse %s", path)
		}
		for _, rec := range tree.Skipped {
			coreLog.Warnf("%s:%d: skipped unrecognized record %s", path, rec.Line, rec.Keyword)
		}

		resolved, err := db.Resolve(tree)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve %s", path)
		}

		coreLog.Infof("loaded %s: %d nodes, %d messages", path, len(resolved.Nodes()), len(resolved.Messages()))
		dbs = append(dbs, resolved)
		trees = append(trees, tree)
	}

	Databases = dbs
	Trees = trees
	return nil
}

// MessageByID searches the loaded databases in config order.
func MessageByID(id uint32) (*db.Message, bool) {
	for _, d := range Databases {
		if m, ok := d.MessageByID(id); ok {
			return m, true
		}
	}
	return nil, false
}

func init() {
	coreLog = log.WithFields(log.Fields{
		"name": "Core",
	})
}
