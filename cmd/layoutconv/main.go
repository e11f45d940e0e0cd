// layoutconv moves level layouts between the database and YAML spawn lists.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/orbitforge/client/internal/config"
	"github.com/orbitforge/client/internal/data"
	"github.com/orbitforge/client/internal/persist"
)

const usage = `Usage:
  layoutconv list
  layoutconv export <level> <output.yaml>
  layoutconv import <input.yaml> [level]`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", usage)
	}
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	db, err := persist.NewDB(ctx, cfg.Database, zap.NewNop())
	if err != nil {
		return err
	}
	defer db.Close()
	repo := persist.NewLayoutRepo(db)

	switch {
	case args[0] == "list" && len(args) == 1:
		return list(ctx, repo)
	case args[0] == "export" && len(args) == 3:
		return export(ctx, repo, args[1], args[2])
	case args[0] == "import" && (len(args) == 2 || len(args) == 3):
		level := ""
		if len(args) == 3 {
			level = args[2]
		}
		return importList(ctx, repo, cfg.Data.Prototypes, args[1], level)
	}
	return fmt.Errorf("%s", usage)
}

func list(ctx context.Context, repo *persist.LayoutRepo) error {
	layouts, err := repo.ListLayouts(ctx)
	if err != nil {
		return err
	}
	for _, l := range layouts {
		fmt.Printf("%-24s %5d entries  saved %s\n", l.Name, l.Entries, l.SavedAt.Format(time.DateTime))
	}
	return nil
}

func export(ctx context.Context, repo *persist.LayoutRepo, level, out string) error {
	l, err := repo.LoadLayout(ctx, level)
	if err != nil {
		return fmt.Errorf("export %q: %w", level, err)
	}
	if err := l.WriteFile(out); err != nil {
		return err
	}
	fmt.Printf("Wrote %d entries to %s\n", len(l.Entries), out)
	return nil
}

// importList stores a spawn list, renamed to level when given. Prototype
// names are checked when the prototype table can be read.
func importList(ctx context.Context, repo *persist.LayoutRepo, protoPath, in, level string) error {
	l, err := data.LoadSpawnList(in)
	if err != nil {
		return err
	}
	if level != "" {
		l.Level = level
	}
	if l.Level == "" {
		return fmt.Errorf("import %s: no level name in file or arguments", in)
	}
	if protos, err := data.LoadPrototypeTable(protoPath); err == nil {
		if err := l.Validate(protos); err != nil {
			return fmt.Errorf("import %s: %w", in, err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "warning: prototypes not checked: %v\n", err)
	}
	if err := repo.SaveLayout(ctx, l); err != nil {
		return fmt.Errorf("import %s: %w", in, err)
	}
	fmt.Printf("Imported %d entries as %q\n", len(l.Entries), l.Level)
	return nil
}
