package service

import (
	"context"
	"sort"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/ai"
	appErr "github.com/ragline/ragline/internal/pkg/errors"
)

type ProviderStatus struct {
	Name      string `json:"name"`
	Default   bool   `json:"default"`
	Reachable bool   `json:"reachable"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type ProviderService struct {
	providers       map[string]ai.IProvider
	defaultProvider string
}

func NewProviderService(providers map[string]ai.IProvider, defaultProvider string) *ProviderService {
	return &ProviderService{providers: providers, defaultProvider: defaultProvider}
}

func (s *ProviderService) Names() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Test probes every configured provider and reports per-provider health.
func (s *ProviderService) Test(ctx context.Context) []ProviderStatus {
	statuses := make([]ProviderStatus, 0, len(s.providers))
	for _, name := range s.Names() {
		provider := s.providers[name]
		status := ProviderStatus{Name: name, Default: name == s.defaultProvider}
		latency, err := provider.TestConnection(ctx)
		if err != nil {
			status.Error = err.Error()
			logutil.GetLogger(ctx).Warn("provider unreachable",
				zap.String("provider", name), zap.Error(err))
		} else {
			status.Reachable = true
			status.LatencyMS = latency.Milliseconds()
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func (s *ProviderService) Models(ctx context.Context, name string) ([]string, error) {
	provider, ok := s.providers[name]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return provider.ListModels(ctx)
}
