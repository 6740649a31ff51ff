package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Agrid-Dev/renotherm/cmd/app"
	httpctrl "github.com/Agrid-Dev/renotherm/internal/controllers/http"
	modbusctrl "github.com/Agrid-Dev/renotherm/internal/controllers/modbus"
	mqttctrl "github.com/Agrid-Dev/renotherm/internal/controllers/mqtt"
	"github.com/Agrid-Dev/renotherm/internal/report"
	"github.com/Agrid-Dev/renotherm/internal/session"
	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// openSession builds the project from the project file when one is given,
// from the config's project section otherwise.
func openSession(cfg app.Config, args []string) (*session.Session, error) {
	pc := cfg.Project
	if len(args) == 1 {
		var err error
		if pc, err = app.LoadProjectFile(args[0]); err != nil {
			return nil, err
		}
	}

	cat, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	snap, err := pc.Snapshot(cat)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	p, err := thermal.New(snap)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	return session.New(pc.ID, p), nil
}

type runner interface {
	Run(ctx context.Context) error
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sess, err := openSession(cfg, nil)
	if err != nil {
		return err
	}
	log := logger.With(zap.String("project_id", sess.ID))

	var runners []runner
	if c := cfg.Controllers.HTTP; c.Enabled {
		opts := []httpctrl.Option{httpctrl.WithLogger(log.Named("http"))}
		if c.RateLimit > 0 {
			opts = append(opts, httpctrl.WithRateLimit(c.RateLimit, c.RateBurst))
		}
		runners = append(runners, httpctrl.New(sess.Project, c.Addr, sess.ID, opts...))
		log.Info("http controller enabled", zap.String("addr", c.Addr))
	}
	if c := cfg.Controllers.MQTT; c.Enabled {
		ctrl, err := mqttctrl.New(sess.Project, mqttctrl.Config{
			ProjectID:       sess.ID,
			BrokerURL:       c.BrokerURL,
			ClientID:        c.ClientID,
			BaseTopic:       c.BaseTopic,
			QoS:             c.QoS,
			RetainSnapshot:  c.RetainSnapshot,
			PublishInterval: c.PublishInterval,
			Username:        c.Username,
			Password:        c.Password,
			Logger:          log.Named("mqtt"),
		})
		if err != nil {
			return err
		}
		runners = append(runners, ctrl)
		log.Info("mqtt controller enabled", zap.String("broker", c.BrokerURL))
	}
	if c := cfg.Controllers.MODBUS; c.Enabled {
		ctrl, err := modbusctrl.New(sess.Project, modbusctrl.Config{
			ProjectID: sess.ID,
			Addr:      c.Addr,
			UnitID:    c.UnitID,
			Logger:    log.Named("modbus"),
		})
		if err != nil {
			return err
		}
		runners = append(runners, ctrl)
		log.Info("modbus controller enabled", zap.String("addr", c.Addr))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		g.Go(func() error { return r.Run(gctx) })
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("controller exited", zap.Error(err))
		return err
	}
	log.Info("stopped")
	return nil
}

func runCalc(w io.Writer, configPath string, args []string, asJSON bool) error {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	sess, err := openSession(cfg, args)
	if err != nil {
		return err
	}
	res, err := sess.Project.Results()
	if err != nil {
		return err
	}
	if asJSON {
		return printResultJSON(w, sess.ID, res)
	}
	printResult(w, sess.ID, sess.Project.Get(), res)
	return nil
}

func runDocument(configPath string, args []string, out, ext string) error {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	sess, err := openSession(cfg, args)
	if err != nil {
		return err
	}
	res, err := sess.Project.Results()
	if err != nil {
		return err
	}
	doc := report.NewDocument(sess.ID, sess.Project.Get(), res)
	if out == "" {
		out = doc.FileName(ext)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	write := report.WritePDF
	if ext == "xlsx" {
		write = report.WriteWorkbook
	}
	if err := write(f, doc); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Println("wrote", out)
	return nil
}

func runPresets(w io.Writer, configPath string) error {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}
	return printPresets(w, cat)
}
