// ============================================================================
// cmdkit - Command Parsing and Execution Engine
// ============================================================================
//
// Package:     cmd
// Description: Wiring shared by every host: world, engine, sample commands,
//              manifest overrides and the audit trail
// Author:      msto63
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"io"
	"slices"
	"time"

	cklog "github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/foundation/engine"
	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/internal/audit"
	"github.com/msto63/cmdkit/internal/commands"
	"github.com/msto63/cmdkit/internal/manifest"
	"github.com/msto63/cmdkit/internal/world"
	"github.com/msto63/cmdkit/pkg/core/config"
	"github.com/msto63/cmdkit/pkg/core/logging"
)

// relay forwards broadcasts to the host's transports once they exist
type relay struct {
	targets []commands.Announcer
}

func (r *relay) add(target commands.Announcer) {
	r.targets = append(r.targets, target)
}

func (r *relay) Announce(from, message string) {
	for _, t := range r.targets {
		t.Announce(from, message)
	}
}

// app is one configured engine with its collaborators
type app struct {
	cfg      *config.Config
	logger   *cklog.Logger
	world    *world.World
	engine   *engine.Engine
	commands *commands.Set
	relay    *relay
	store    audit.Store
	recorder *audit.Recorder
}

type appOptions struct {
	// LogFile sends the log to a file instead of stdout
	LogFile   string
	LogOutput io.Writer
	Formatter engine.Formatter
}

func newApp(cfg *config.Config, opts appOptions) (*app, error) {
	lc := logging.FromConfig(cfg.General.Name, cfg.Logging)
	lc.File = opts.LogFile
	lc.Output = opts.LogOutput
	logger := logging.Setup(cfg.General.Name, lc)

	a := &app{
		cfg:    cfg,
		logger: logger,
		world:  world.New(),
		relay:  &relay{},
	}

	if cfg.Audit.Enabled {
		store, err := audit.NewSQLiteStore(audit.SQLiteConfig{Path: cfg.Audit.Path})
		if err != nil {
			return nil, err
		}
		a.store = store
		if cfg.Audit.RetentionDays > 0 {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			n, err := store.Prune(ctx, time.Duration(cfg.Audit.RetentionDays)*24*time.Hour)
			cancel()
			if err != nil {
				logger.Warn("Audit prune failed", cklog.Fields{"error": err.Error()})
			} else if n > 0 {
				logger.Info("Audit records pruned", cklog.Fields{"count": n})
			}
		}
		rc := audit.DefaultRecorderConfig()
		rc.Logger = logger
		a.recorder = audit.NewRecorder(store, rc)
	}

	var observers []engine.Observer
	if a.recorder != nil {
		observers = append(observers, a.recorder)
	}
	a.engine = engine.New(engine.Options{
		Logger:              logger,
		Permissions:         grants(cfg.Engine.Permissions),
		World:               a.world,
		Formatter:           opts.Formatter,
		Observers:           observers,
		MaxLineLength:       cfg.Engine.MaxLineLength,
		SuggestionCount:     cfg.Engine.SuggestionCount,
		SuggestionThreshold: cfg.Engine.SuggestionThreshold,
	})
	a.engine.Resolvers().Properties.Register("world", a.world.Property)

	a.commands = commands.New(commands.Options{
		World:     a.world,
		Audit:     a.store,
		Announcer: a.relay,
		Logger:    logger,
	})
	descriptors := a.commands.Descriptors()
	withPrecision(descriptors, cfg.Engine.DefaultPrecision)
	if cfg.Manifest.Path != "" {
		m, err := manifest.Load(cfg.Manifest.Path)
		if err != nil {
			a.close()
			return nil, err
		}
		if err := m.Apply(descriptors); err != nil {
			a.close()
			return nil, err
		}
		logger.Info("Manifest applied", cklog.Fields{"path": cfg.Manifest.Path, "commands": len(m.Commands)})
	}
	if err := a.engine.Register(descriptors...); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// grants returns a checker granting the listed permissions to everyone
func grants(permissions []string) command.PermissionChecker {
	if slices.Contains(permissions, "*") {
		return command.AllowAll
	}
	granted := make(map[string]bool, len(permissions))
	for _, p := range permissions {
		granted[p] = true
	}
	return command.PermissionFunc(func(_ command.Caller, permission string) bool {
		return granted[permission]
	})
}

// withPrecision sets the configured fuzzy threshold on actor parameters
// that declare none
func withPrecision(descriptors []*command.Descriptor, precision float64) {
	if precision <= 0 || precision == command.DefaultPrecision {
		return
	}
	for _, d := range descriptors {
		for _, o := range d.Overloads {
			for i := range o.Params {
				p := &o.Params[i]
				if (p.Type == command.TypeActor || p.Type == command.TypeActors) && p.Restrictions.Precision == 0 {
					p.Restrictions.Precision = precision
				}
			}
		}
	}
}

// spawn places a caller in the world as a privileged-free entity
func (a *app) spawn(id, name string) *world.Entity {
	e, err := a.world.Spawn(id, name, false, command.Vec3{})
	if err != nil {
		a.logger.Warn("Caller not placed in the world", cklog.Fields{"caller": name, "error": err.Error()})
		return nil
	}
	return e
}

func (a *app) close() {
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			a.logger.LogError(err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.LogError(err)
		}
	}
	logging.CloseFiles()
}
