package settings

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/sirupsen/logrus"
)

type Key string

const (
	MetricUnits                  Key = "metric_units"
	QueryLiveData                Key = "query_live_data"
	InformationSources           Key = "information_sources"
	WeatherForecastEnabled       Key = "weather_forecast_enabled"
	HomeCountry                  Key = "home_country"
	AutoAddTransfers             Key = "auto_add_transfers"
	AutoFillTransfers            Key = "auto_fill_transfers"
	ShowNotificationOnLockScreen Key = "show_notification_on_lock_screen"
)

var boolKeys = map[Key]bool{
	MetricUnits:                  true,
	QueryLiveData:                true,
	WeatherForecastEnabled:       true,
	AutoAddTransfers:             true,
	AutoFillTransfers:            true,
	ShowNotificationOnLockScreen: true,
}

// Countries where imperial units are the norm.
var imperialCountries = map[string]bool{"US": true, "LR": true, "MM": true}

type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

// Snapshot is the effective value of every setting.
type Snapshot struct {
	MetricUnits                  bool     `json:"metric_units"`
	MetricUnitsVisible           bool     `json:"metric_units_visible"`
	QueryLiveData                bool     `json:"query_live_data"`
	InformationSources           []string `json:"information_sources"`
	WeatherForecastEnabled       bool     `json:"weather_forecast_enabled"`
	HomeCountry                  string   `json:"home_country"`
	AutoAddTransfers             bool     `json:"auto_add_transfers"`
	AutoFillTransfers            bool     `json:"auto_fill_transfers"`
	ShowNotificationOnLockScreen bool     `json:"show_notification_on_lock_screen"`
}

type Service struct {
	store    Backend
	country  string
	sources  []string
	defaults map[Key]string
	logger   logrus.FieldLogger
	mu       sync.Mutex
}

// NewService builds the settings service. Defaults derive from locale (e.g. "de_DE"); sources lists
// every known online information source.
func NewService(store Backend, locale string, sources []string, logger logrus.FieldLogger) *Service {
	country := countryOf(locale)
	known := append([]string(nil), sources...)
	sort.Strings(known)

	return &Service{
		store:   store,
		country: country,
		sources: known,
		defaults: map[Key]string{
			MetricUnits:                  strconv.FormatBool(!imperialCountries[country]),
			QueryLiveData:                "false",
			InformationSources:           strings.Join(known, ","),
			WeatherForecastEnabled:       "false",
			HomeCountry:                  country,
			AutoAddTransfers:             "true",
			AutoFillTransfers:            "false",
			ShowNotificationOnLockScreen: "false",
		},
		logger: logger,
	}
}

func Keys() []Key {
	return []Key{
		MetricUnits, QueryLiveData, InformationSources, WeatherForecastEnabled,
		HomeCountry, AutoAddTransfers, AutoFillTransfers, ShowNotificationOnLockScreen,
	}
}

func IsBool(key Key) bool {
	return boolKeys[key]
}

// MetricUnitsVisible is true only where the user could plausibly want either unit system.
func (s *Service) MetricUnitsVisible() bool {
	return imperialCountries[s.country] || s.country == "GB"
}

func (s *Service) Get(ctx context.Context, key Key) (string, error) {
	def, ok := s.defaults[key]
	if !ok {
		return "", unknownKey(key)
	}
	value, found, err := s.store.Get(ctx, string(key))
	if err != nil {
		return "", err
	}
	if !found {
		return def, nil
	}
	return value, nil
}

func (s *Service) Bool(ctx context.Context, key Key) (bool, error) {
	if !IsBool(key) {
		return false, domain.ValidationError{Field: string(key), Msg: "not a boolean setting"}
	}
	value, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// Set validates and persists value. Turning off live data or transfer adding also turns off auto fill.
func (s *Service) Set(ctx context.Context, key Key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(ctx, key, value)
}

// Toggle flips a boolean setting, persists it and returns the new value.
func (s *Service) Toggle(ctx context.Context, key Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Bool(ctx, key)
	if err != nil {
		return false, err
	}
	next := !current
	if err := s.set(ctx, key, strconv.FormatBool(next)); err != nil {
		return false, err
	}
	return next, nil
}

func (s *Service) set(ctx context.Context, key Key, value string) error {
	normalized, err := s.normalize(key, value)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, string(key), normalized); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"key": key, "value": normalized}).Info("setting changed")

	if (key == QueryLiveData || key == AutoAddTransfers) && normalized == "false" {
		if err := s.store.Set(ctx, string(AutoFillTransfers), "false"); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) normalize(key Key, value string) (string, error) {
	if _, ok := s.defaults[key]; !ok {
		return "", unknownKey(key)
	}
	value = strings.TrimSpace(value)

	switch {
	case IsBool(key):
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", domain.ValidationError{Field: string(key), Msg: "must be true or false", Err: err}
		}
		return strconv.FormatBool(b), nil
	case key == InformationSources:
		ids, err := s.parseSources(value)
		if err != nil {
			return "", err
		}
		return strings.Join(ids, ","), nil
	case key == HomeCountry:
		value = strings.ToUpper(value)
		if value != "" && (len(value) != 2 || !isLetters(value)) {
			return "", domain.ValidationError{Field: string(key), Msg: "must be a two letter country code"}
		}
		return value, nil
	}
	return value, nil
}

func (s *Service) parseSources(value string) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, part := range strings.Split(value, ",") {
		id := strings.ToLower(strings.TrimSpace(part))
		if id == "" || seen[id] {
			continue
		}
		if !s.knownSource(id) {
			return nil, domain.ValidationError{Field: string(InformationSources), Msg: "unknown source " + id}
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Service) knownSource(id string) bool {
	i := sort.SearchStrings(s.sources, id)
	return i < len(s.sources) && s.sources[i] == id
}

func (s *Service) InformationSources(ctx context.Context) ([]string, error) {
	value, err := s.Get(ctx, InformationSources)
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for _, id := range strings.Split(value, ",") {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Service) SourceEnabled(ctx context.Context, id string) (bool, error) {
	ids, err := s.InformationSources(ctx)
	if err != nil {
		return false, err
	}
	for _, enabled := range ids {
		if enabled == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	stored, err := s.store.All(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	value := func(key Key) string {
		if v, ok := stored[string(key)]; ok {
			return v
		}
		return s.defaults[key]
	}
	flag := func(key Key) bool { return value(key) == "true" }

	var sources []string
	for _, id := range strings.Split(value(InformationSources), ",") {
		if id != "" {
			sources = append(sources, id)
		}
	}
	if sources == nil {
		sources = []string{}
	}

	return Snapshot{
		MetricUnits:                  flag(MetricUnits),
		MetricUnitsVisible:           s.MetricUnitsVisible(),
		QueryLiveData:                flag(QueryLiveData),
		InformationSources:           sources,
		WeatherForecastEnabled:       flag(WeatherForecastEnabled),
		HomeCountry:                  value(HomeCountry),
		AutoAddTransfers:             flag(AutoAddTransfers),
		AutoFillTransfers:            flag(AutoFillTransfers) && flag(QueryLiveData) && flag(AutoAddTransfers),
		ShowNotificationOnLockScreen: flag(ShowNotificationOnLockScreen),
	}, nil
}

func unknownKey(key Key) error {
	return domain.ValidationError{Field: string(key), Msg: "unknown setting"}
}

// countryOf extracts the region of a POSIX or BCP 47 locale such as "de_DE.UTF-8" or "en-US".
func countryOf(locale string) string {
	locale = strings.SplitN(locale, ".", 2)[0]
	locale = strings.SplitN(locale, "@", 2)[0]
	parts := strings.FieldsFunc(locale, func(r rune) bool { return r == '_' || r == '-' })
	if len(parts) < 2 {
		return ""
	}
	country := strings.ToUpper(parts[len(parts)-1])
	if len(country) != 2 || !isLetters(country) {
		return ""
	}
	return country
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
