package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/haivivi/jsonstore/cmd/jsonstore/internal/config"
	"github.com/haivivi/jsonstore/pkg/cli"
	"github.com/haivivi/jsonstore/pkg/jsonstore"
	"github.com/haivivi/jsonstore/pkg/kv"
	"github.com/haivivi/jsonstore/pkg/storage"
)

// defaultRegion is used when cloud.region is not configured.
const defaultRegion = "us-east-1"

// openStorage builds the storage facade from the configuration. Backends
// that cannot be opened are still passed as candidates so that they are
// reported as invalid during initialization. The returned close function
// releases every opened store.
func openStorage(ctx context.Context, cfg *config.Config, p *cli.Printer) (*jsonstore.Storage, func() error) {
	log := slog.Default()
	opts := []jsonstore.BackendOption{jsonstore.WithBackendLogger(log)}
	var (
		candidates []jsonstore.Backend
		closers    []func() error
	)

	// Dropbox is probed first but never becomes the default on its own.
	{
		var fs storage.FileStore
		if cfg.Dropbox.AppKey != "" {
			store, err := storage.NewDropbox(storage.DropboxOptions{
				Token:      cfg.Dropbox.AccessToken(),
				Root:       cfg.Dropbox.Root,
				APIURL:     cfg.Dropbox.APIURL,
				ContentURL: cfg.Dropbox.ContentURL,
			})
			if err != nil {
				log.Warn("dropbox unavailable", "error", err)
			} else {
				fs = store
			}
		}
		candidates = append(candidates, jsonstore.NewDropboxBackend(fs, cfg.Dropbox.AppKey, opts...))
	}

	if !cfg.Keychain.Disabled {
		var kc jsonstore.Keychain
		store, err := openKeychain(cfg)
		if err != nil {
			log.Warn("keychain unavailable", "dir", cfg.KeychainDir(), "error", err)
		} else {
			closers = append(closers, store.Close)
			kc = jsonstore.NewKVKeychain(store)
		}
		candidates = append(candidates, jsonstore.NewKeychainBackend(kc, opts...))
	}

	if cfg.Cloud.Bucket != "" {
		var kc jsonstore.Keychain
		store, err := kv.NewS3(newS3Client(ctx, cfg.Cloud), kv.S3Options{
			Bucket: cfg.Cloud.Bucket,
			Prefix: cfg.Cloud.Prefix,
		})
		if err != nil {
			log.Warn("cloud unavailable", "bucket", cfg.Cloud.Bucket, "error", err)
		} else {
			kc = jsonstore.NewKVKeychain(store)
		}
		candidates = append(candidates, jsonstore.NewCloudBackend(kc, opts...))
	}

	if !cfg.Local.Disabled {
		var fs storage.FileStore
		local, err := storage.NewLocal(cfg.LocalRoot())
		if err != nil {
			log.Warn("local storage unavailable", "root", cfg.LocalRoot(), "error", err)
		} else {
			fs = local
		}
		candidates = append(candidates, jsonstore.NewLocalBackend(fs, opts...))
	}

	if cfg.Memory.Enabled {
		candidates = append(candidates, jsonstore.NewMemoryBackend())
	}

	s := jsonstore.New(candidates, jsonstore.WithLogger(log), jsonstore.WithDebug(debug || cfg.Debug))
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	if cfg.DefaultBackend != "" {
		if _, err := s.SetDefaultBackend(cfg.DefaultBackend); err != nil {
			// The configured backend may just be unavailable right now.
			p.Warning("configured default backend %q not available, using %s", cfg.DefaultBackend, s.DefaultBackend())
		}
	}
	p.Verbose(IsVerbose(), "backends: %v, default: %s", s.Backends(), s.DefaultBackend())
	return s, closeAll
}

// openKeychain opens the badger store behind the keychain backend.
func openKeychain(cfg *config.Config) (kv.Store, error) {
	key, err := cfg.Keychain.Key()
	if err != nil {
		return nil, err
	}
	return kv.NewBadger(kv.BadgerOptions{
		Dir:           cfg.KeychainDir(),
		InMemory:      cfg.Keychain.InMemory,
		EncryptionKey: key,
	})
}

// newS3Client creates an S3 client from the cloud configuration.
// Credentials come from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
// AWS_SESSION_TOKEN; without them requests are anonymous.
func newS3Client(_ context.Context, c config.CloudConfig) *s3.Client {
	region := c.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = defaultRegion
	}
	opts := s3.Options{
		Region:       region,
		UsePathStyle: c.PathStyle,
		Credentials:  envCredentials(),
	}
	if c.Endpoint != "" {
		opts.BaseEndpoint = aws.String(c.Endpoint)
	}
	return s3.New(opts)
}

func envCredentials() aws.CredentialsProvider {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	token := os.Getenv("AWS_SESSION_TOKEN")
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    token,
			Source:          "environment",
		}, nil
	})
}

// withStorage opens the storage for cmd, runs fn and closes the storage.
func withStorage(cmd *cobra.Command, fn func(s *jsonstore.Storage) error) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	s, closeFn := openStorage(cmd.Context(), cfg, printer(cmd))
	defer func() {
		if err := closeFn(); err != nil {
			slog.Warn("close storage", "error", err)
		}
	}()
	return fn(s)
}

// callOptions returns the per-call options from the global flags.
func callOptions() []jsonstore.CallOption {
	if backendName == "" {
		return nil
	}
	return []jsonstore.CallOption{jsonstore.WithBackend(backendName)}
}
