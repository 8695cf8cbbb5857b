package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront_back_end/internal/config"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotFound est renvoyé par les dépôts quand la ligne demandée n'existe pas.
var ErrNotFound = errors.New("introuvable")

// ErrSlugTaken est renvoyé quand un autre produit détient déjà le slug.
var ErrSlugTaken = errors.New("un produit porte déjà ce slug")

// =============================================
// SCYLLA DB
// =============================================

// NewScyllaSession ouvre la session du keyspace boutique (produits + commandes).
// Les tables sont créées via scripts/scylladb_init.cql.
func NewScyllaSession(cfg *config.Config, log *zap.Logger) (*gocql.Session, error) {
	cluster := gocql.NewCluster(cfg.ScyllaHostList()...)
	cluster.Keyspace = cfg.ScyllaKeyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 20
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = time.Second
	if cfg.ScyllaUsername != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.ScyllaUsername,
			Password: cfg.ScyllaPassword,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("création session ScyllaDB (%s): %w", cfg.ScyllaKeyspace, err)
	}

	log.Info("✅ Session ScyllaDB ouverte", zap.String("keyspace", cfg.ScyllaKeyspace))
	return session, nil
}

// PingScylla sert au contrôle de santé.
func PingScylla(ctx context.Context, session *gocql.Session) error {
	return session.Query("SELECT now() FROM system.local").WithContext(ctx).Exec()
}

// =============================================
// REDIS
// =============================================

func NewRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost,
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("impossible de se connecter à Redis: %w", err)
	}

	log.Info("✅ Connecté à Redis", zap.String("addr", cfg.RedisHost))
	return client, nil
}

// =============================================
// ELASTICSEARCH
// =============================================

// NewElastic retourne nil sans erreur si ELASTIC_URL n'est pas configuré :
// la recherche retombe alors sur le filtrage en mémoire.
func NewElastic(cfg *config.Config, log *zap.Logger) (*elasticsearch.Client, error) {
	if cfg.ElasticURL == "" {
		log.Warn("⚠️ ELASTIC_URL non configuré, recherche en mémoire uniquement")
		return nil, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("création client Elasticsearch: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("connexion Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("connexion Elasticsearch: %s", res.Status())
	}

	log.Info("✅ Connecté à Elasticsearch")
	return client, nil
}

// =============================================
// MINIO
// =============================================

// NewMinIO ouvre le client et crée le bucket d'images s'il n'existe pas.
func NewMinIO(ctx context.Context, cfg *config.Config, log *zap.Logger) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connexion MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("vérification bucket MinIO: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("création bucket MinIO: %w", err)
		}
		log.Info("🪣 Bucket créé", zap.String("bucket", cfg.MinioBucket))
	}

	log.Info("✅ Connecté à MinIO", zap.String("endpoint", cfg.MinioEndpoint))
	return client, nil
}
