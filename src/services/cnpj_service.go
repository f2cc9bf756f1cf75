package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rafaavmsilva/Menu/src/logger"
	"github.com/rafaavmsilva/Menu/src/models"
	"github.com/rafaavmsilva/Menu/src/processors"
	"github.com/rafaavmsilva/Menu/src/security/validation"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// brasilAPIResponse is the subset of the BrasilAPI CNPJ payload we keep.
type brasilAPIResponse struct {
	CNPJ                       string `json:"cnpj"`
	RazaoSocial                string `json:"razao_social"`
	NomeFantasia               string `json:"nome_fantasia"`
	DescricaoSituacaoCadastral string `json:"descricao_situacao_cadastral"`
	Municipio                  string `json:"municipio"`
	UF                         string `json:"uf"`
}

// CNPJServiceConfig configures the lookup client.
type CNPJServiceConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryPause time.Duration
}

// CNPJService resolves CNPJs through an external API. Successful lookups
// are cached for the process lifetime; failures go to a separate set that
// only RetryFailed or a later successful lookup drains.
type CNPJService struct {
	baseURL    string
	httpClient *http.Client
	retryPause time.Duration
	store      TransactionRepository

	cache    *cache.Cache
	inflight singleflight.Group

	// mu guards failed and every cache write, so an id is never in both.
	mu     sync.Mutex
	failed map[string]struct{}

	retryMu sync.Mutex
}

func NewCNPJService(cfg CNPJServiceConfig, store TransactionRepository) *CNPJService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &CNPJService{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Jar: jar, Timeout: timeout},
		retryPause: cfg.RetryPause,
		store:      store,
		cache:      cache.New(cache.NoExpiration, 0),
		failed:     make(map[string]struct{}),
	}
}

// Resolve returns the company for a normalized 14-digit CNPJ.
// A cache hit never touches the network. Concurrent callers share one
// lookup, which runs detached from any single caller's cancellation; a
// caller whose context ends stops waiting without marking the id failed.
func (s *CNPJService) Resolve(ctx context.Context, cnpj string) (*models.CompanyRecord, bool) {
	if company, ok := s.cached(cnpj); ok {
		return company, true
	}

	lookupCtx := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(cnpj, func() (any, error) {
		if company, ok := s.cached(cnpj); ok {
			return company, nil
		}
		company, err := s.fetch(lookupCtx, cnpj)
		if err != nil {
			s.markFailed(cnpj)
			return nil, err
		}
		s.markResolved(company)
		return company, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			logger.FromContext(ctx).Warn("CNPJ lookup failed", "cnpj", cnpj, "error", res.Err)
			return nil, false
		}
		company := *res.Val.(*models.CompanyRecord)
		return &company, true
	case <-ctx.Done():
		logger.FromContext(ctx).Warn("CNPJ lookup abandoned", "cnpj", cnpj, "error", ctx.Err())
		return nil, false
	}
}

// FailedCNPJs returns a sorted snapshot of the failed set.
func (s *CNPJService) FailedCNPJs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.failed))
	for id := range s.failed {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *CNPJService) FailedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.failed)
}

// RetryFailed re-resolves a snapshot of the failed set, pausing between
// external calls, and rewrites persisted descriptions for every recovered
// CNPJ. Ids that fail again stay in the set; ids added by other lookups
// while the pass runs are kept as well.
func (s *CNPJService) RetryFailed(ctx context.Context) (*RetryReport, error) {
	s.retryMu.Lock()
	defer s.retryMu.Unlock()

	log := logger.FromContext(ctx)
	snapshot := s.FailedCNPJs()
	report := &RetryReport{Recovered: []string{}, StillFailing: []string{}}

	pacer := rate.NewLimiter(rate.Every(s.retryPause), 1)
	var errs []error
	for i, cnpj := range snapshot {
		if err := pacer.Wait(ctx); err != nil {
			report.StillFailing = append(report.StillFailing, snapshot[i:]...)
			errs = append(errs, fmt.Errorf("retry interrupted: %w", err))
			break
		}

		company, cached := s.cached(cnpj)
		if !cached {
			var err error
			if company, err = s.fetch(ctx, cnpj); err != nil {
				log.Warn("CNPJ still failing", "cnpj", cnpj, "error", err)
				report.StillFailing = append(report.StillFailing, cnpj)
				continue
			}
		}
		s.markResolved(company)
		report.Recovered = append(report.Recovered, cnpj)

		if s.store == nil {
			continue
		}
		name := company.FormalName()
		n, err := s.store.RewriteDescriptions(ctx, processors.IdentifierNeedles(cnpj), func(desc string) string {
			return processors.ReplaceIdentifier(desc, cnpj, name)
		})
		if err != nil {
			log.Error("Failed to rewrite descriptions for recovered CNPJ", "cnpj", cnpj, "error", err)
			errs = append(errs, fmt.Errorf("rewrite descriptions for %s: %w", cnpj, err))
			continue
		}
		report.UpdatedRows += n
	}

	report.Message = fmt.Sprintf("Retry concluído. %d CNPJs recuperados. %d ainda com falha.", len(report.Recovered), len(report.StillFailing))
	log.Info("CNPJ retry finished", "recovered", len(report.Recovered), "stillFailing", len(report.StillFailing), "updatedRows", report.UpdatedRows)
	return report, errors.Join(errs...)
}

func (s *CNPJService) cached(cnpj string) (*models.CompanyRecord, bool) {
	v, ok := s.cache.Get(cnpj)
	if !ok {
		return nil, false
	}
	company := *v.(*models.CompanyRecord)
	return &company, true
}

func (s *CNPJService) markResolved(company *models.CompanyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(company.CNPJ, company, cache.NoExpiration)
	delete(s.failed, company.CNPJ)
}

func (s *CNPJService) markFailed(cnpj string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, cached := s.cache.Get(cnpj); cached {
		return
	}
	s.failed[cnpj] = struct{}{}
}

func (s *CNPJService) fetch(ctx context.Context, cnpj string) (*models.CompanyRecord, error) {
	url := fmt.Sprintf("%s/%s", s.baseURL, cnpj)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCNPJLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCNPJLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %s", ErrCNPJLookupFailed, resp.Status)
	}

	var payload brasilAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrCNPJLookupFailed, err)
	}

	company := &models.CompanyRecord{
		CNPJ:      cnpj,
		Name:      validation.SanitizeText(payload.RazaoSocial),
		TradeName: validation.SanitizeText(payload.NomeFantasia),
		Status:    validation.SanitizeText(payload.DescricaoSituacaoCadastral),
		City:      validation.SanitizeText(payload.Municipio),
		State:     validation.SanitizeText(payload.UF),
		FetchedAt: time.Now().UTC(),
	}
	if company.FormalName() == "" {
		return nil, fmt.Errorf("%w: response has no company name", ErrCNPJLookupFailed)
	}
	return company, nil
}
