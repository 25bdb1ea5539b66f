package main

import (
	"context"

	"github.com/juju/errors"

	"github.com/pearcec/herald/internal/compose"
	"github.com/pearcec/herald/internal/config"
	"github.com/pearcec/herald/internal/notify/fcm"
	"github.com/pearcec/herald/internal/store"
	fsstore "github.com/pearcec/herald/internal/store/firestore"
)

// services bundles the collaborators every command needs.
type services struct {
	cfg      *config.Config
	store    *fsstore.Store
	notifier *fcm.Client
	composer *compose.Composer
}

var _ store.Store = (*fsstore.Store)(nil)

// openServices loads configuration and connects the Firestore and FCM
// clients. Credential problems surface here, at startup.
func openServices(ctx context.Context) (*services, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if cfg.Firebase.ProjectID == "" {
		return nil, errors.Errorf("firebase.project_id is not configured (set it in %s)", config.DefaultConfigPath)
	}

	st, err := fsstore.Open(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, fsstore.Collections{
		Events:   cfg.Collections.Events,
		Notified: cfg.Collections.Notified,
		SendLog:  cfg.Collections.SendLog,
		ErrorLog: cfg.Collections.ErrorLog,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	notifier, err := fcm.New(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		st.Close()
		return nil, errors.Trace(err)
	}

	composer, err := compose.New(cfg.Notify.Timezone)
	if err != nil {
		st.Close()
		return nil, errors.Trace(err)
	}

	return &services{cfg: cfg, store: st, notifier: notifier, composer: composer}, nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

func (s *services) close() {
	s.store.Close()
}
