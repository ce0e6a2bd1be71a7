package container

import (
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/polkapad/staking-ledger/pkg"
)

const (
	MongoUsername    = "user"
	MongoPassword    = "password"
	RabbitMQUsername = "user"
	RabbitMQPassword = "password"
)

// Manager is a wrapper around all Docker instances, and the Docker API.
// It provides utilities to run and interact with all Docker containers used
// within e2e testing.
type Manager struct {
	cfg       ImageConfig
	pool      *dockertest.Pool
	resources map[string]*dockertest.Resource
}

// NewManager creates a new Manager instance and initializes
// all Docker specific utilities. Returns an error if initialization fails.
func NewManager(t *testing.T) (*Manager, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, err
	}
	pool.MaxWait = 2 * time.Minute

	return &Manager{
		cfg:       NewImageConfig(),
		pool:      pool,
		resources: make(map[string]*dockertest.Resource),
	}, nil
}

// Retry retries op with the pool's backoff until it succeeds or MaxWait
// elapses.
func (m *Manager) Retry(op func() error) error {
	return m.pool.Retry(op)
}

// RunMongoResource starts mongo and returns its host address.
func (m *Manager) RunMongoResource(t *testing.T) (string, error) {
	resource, err := m.run(t, "mongo", &dockertest.RunOptions{
		Repository: m.cfg.MongoRepository,
		Tag:        m.cfg.MongoVersion,
		Env: []string{
			"MONGO_INITDB_ROOT_USERNAME=" + MongoUsername,
			"MONGO_INITDB_ROOT_PASSWORD=" + MongoPassword,
		},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mongodb://localhost:%s/", resource.GetPort("27017/tcp")), nil
}

// RunRabbitMQResource starts rabbitmq and returns its amqp url.
func (m *Manager) RunRabbitMQResource(t *testing.T) (string, error) {
	resource, err := m.run(t, "rabbitmq", &dockertest.RunOptions{
		Repository: m.cfg.RabbitMQRepository,
		Tag:        m.cfg.RabbitMQVersion,
		Env: []string{
			"RABBITMQ_DEFAULT_USER=" + RabbitMQUsername,
			"RABBITMQ_DEFAULT_PASS=" + RabbitMQPassword,
		},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"amqp://%s:%s@localhost:%s/",
		RabbitMQUsername, RabbitMQPassword, resource.GetPort("5672/tcp"),
	), nil
}

func (m *Manager) run(t *testing.T, name string, opts *dockertest.RunOptions) (*dockertest.Resource, error) {
	// there can be only 1 container with the same name
	opts.Name = fmt.Sprintf("%s-e2e-%s", name, pkg.RandString(4))

	resource, err := m.pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	m.resources[name] = resource
	t.Logf("started %s container %s", name, opts.Name)
	return resource, nil
}

// ClearResources removes all outstanding Docker resources created by the Manager.
func (m *Manager) ClearResources() error {
	for name, resource := range m.resources {
		if err := m.pool.Purge(resource); err != nil {
			return fmt.Errorf("failed to purge %s: %w", name, err)
		}
		delete(m.resources, name)
	}
	return nil
}
