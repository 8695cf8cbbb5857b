package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"storefront_back_end/internal/models"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const lookupTimeout = 3 * time.Second

var ErrUnmappedCountry = errors.New("pays sans devise associée")

type geoResponse struct {
	CountryCode string `json:"country_code"`
}

// Resolver devine la devise d'affichage à partir de l'adresse IP du visiteur.
// Toute erreur retombe sur la devise par défaut : l'appel ne bloque jamais le panier.
type Resolver struct {
	baseURL  string
	fallback models.Currency
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[string]
	log      *zap.Logger
}

func NewResolver(baseURL, fallbackCode string, log *zap.Logger) *Resolver {
	fallback, ok := models.LookupCurrency(fallbackCode)
	if !ok {
		fallback = models.Currencies["USD"]
	}
	if log == nil {
		log = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "geo-lookup",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("⚠️ Circuit géolocalisation", zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	return &Resolver{
		baseURL:  strings.TrimRight(baseURL, "/"),
		fallback: fallback,
		client:   &http.Client{Timeout: lookupTimeout},
		breaker:  breaker,
		log:      log,
	}
}

// Resolve implémente cart.CurrencyResolver.
func (r *Resolver) Resolve(ctx context.Context, clientIP string) models.Currency {
	country, err := r.breaker.Execute(func() (string, error) {
		return r.lookupCountry(ctx, clientIP)
	})
	if err != nil {
		r.log.Info("🌍 Devise par défaut appliquée", zap.String("ip", clientIP), zap.Error(err))
		return r.fallback
	}

	c, ok := models.CurrencyForCountry(country)
	if !ok {
		r.log.Info("🌍 Pays sans devise dédiée", zap.String("country", country))
		return r.fallback
	}
	return c
}

func (r *Resolver) lookupCountry(ctx context.Context, clientIP string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.lookupURL(clientIP), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("requête géolocalisation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("géolocalisation: statut %d", resp.StatusCode)
	}

	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("décodage géolocalisation: %w", err)
	}
	if body.CountryCode == "" {
		return "", ErrUnmappedCountry
	}
	return body.CountryCode, nil
}

// Une IP locale ou privée ne dit rien du visiteur : on laisse le service
// géolocaliser l'appelant.
func (r *Resolver) lookupURL(clientIP string) string {
	ip := net.ParseIP(clientIP)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return r.baseURL + "/json/"
	}
	return r.baseURL + "/" + ip.String() + "/json/"
}
