package main

import (
	"context"
	"net/http"
	"os"
	"time"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/db"
	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/sfsync"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/pkg/peopledata"
	sfpkg "github.com/sells-group/enrich-cli/pkg/salesforce"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "enrich.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store.NewPostgres(pool), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initProvider() (peopledata.Client, error) {
	if cfg.EPS.Key == "" {
		return nil, eris.New("profile source API key is required (ENRICH_EPS_KEY)")
	}

	opts := []peopledata.Option{
		peopledata.WithRateLimit(cfg.EPS.RatePerSecond),
		peopledata.WithMaxCandidates(cfg.EPS.MaxCandidates),
	}
	if cfg.EPS.BaseURL != "" {
		opts = append(opts, peopledata.WithBaseURL(cfg.EPS.BaseURL))
	}
	if cfg.EPS.TimeoutSecs > 0 {
		opts = append(opts, peopledata.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.EPS.TimeoutSecs) * time.Second,
		}))
	}
	return peopledata.NewClient(cfg.EPS.Key, opts...), nil
}

// initService wires the store, profile source, and enrichment engine.
// Callers must Close the returned store.
func initService(ctx context.Context) (*enrich.Service, store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	provider, err := initProvider()
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return enrich.NewService(st, provider, cfg.Batch.MaxConcurrentContacts), st, nil
}

func initSalesforce() (sfpkg.Client, error) {
	if !cfg.Salesforce.Enabled {
		return nil, eris.New("salesforce sync is disabled (ENRICH_SALESFORCE_ENABLED)")
	}
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (ENRICH_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := gosf.Init(gosf.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf), nil
}

func initSyncer(ctx context.Context, st store.Store) (*sfsync.Syncer, error) {
	sf, err := initSalesforce()
	if err != nil {
		return nil, err
	}
	syncer := sfsync.NewSyncer(sf, st)
	if err := syncer.ValidateFields(ctx); err != nil {
		return nil, err
	}
	return syncer, nil
}
