// Package catalog answers the browsing queries of the viewer: organizations,
// devices, sessions of a device, and single-session detail.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/recviewer/internal/common"
	"github.com/dmitrijs2005/recviewer/internal/keys"
	"github.com/dmitrijs2005/recviewer/internal/logging"
	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/dmitrijs2005/recviewer/internal/objectstore"
	"github.com/dmitrijs2005/recviewer/internal/server/prefixindex"
	"github.com/dmitrijs2005/recviewer/internal/server/sessions"
)

const (
	// MaxPageLimit caps SessionQuery.Limit.
	MaxPageLimit = 500

	defaultFanOut     = 8
	defaultPresignTTL = time.Hour
)

type Options struct {
	Strategy   sessions.TimestampStrategy
	PresignTTL time.Duration
	// Index, when set, is fed on every listing pass and consulted before
	// falling back to a full device scan.
	Index  prefixindex.Index
	FanOut int
	Logger logging.Logger
}

type Service struct {
	store      objectstore.Store
	scanner    *sessions.Scanner
	resolver   Resolver
	index      prefixindex.Index
	presignTTL time.Duration
	fanOut     int
	log        logging.Logger
}

func NewService(store objectstore.Store, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = defaultPresignTTL
	}
	if opts.FanOut <= 0 {
		opts.FanOut = defaultFanOut
	}

	var resolver Resolver = NewScanResolver(store)
	if opts.Index != nil {
		resolver = NewIndexedResolver(opts.Index, resolver, log)
	}

	return &Service{
		store:      store,
		scanner:    sessions.NewScanner(store, opts.Strategy, log),
		resolver:   resolver,
		index:      opts.Index,
		presignTTL: opts.PresignTTL,
		fanOut:     opts.FanOut,
		log:        log,
	}
}

// Resolver exposes the prefix resolver so that other services share one
// index.
func (s *Service) Resolver() Resolver { return s.resolver }

// ListOrganizations enumerates the top-level prefixes of the bucket.
func (s *Service) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	ids, err := objectstore.Children(ctx, s.store, "")
	if err != nil {
		return nil, err
	}

	orgs := make([]models.Organization, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)
	for i, id := range ids {
		g.Go(func() error {
			orgs[i] = models.Organization{ID: id, DisplayName: s.displayName(gctx, keys.OrgPrefix(id), id)}
			return nil
		})
	}
	_ = g.Wait()
	return orgs, nil
}

// ListDevices enumerates the device prefixes one level under org.
func (s *Service) ListDevices(ctx context.Context, org string) ([]models.Device, error) {
	ids, err := objectstore.Children(ctx, s.store, keys.OrgPrefix(org))
	if err != nil {
		return nil, err
	}

	devices := make([]models.Device, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)
	for i, id := range ids {
		g.Go(func() error {
			devices[i] = models.Device{ID: id, OrgID: org, DisplayName: s.displayName(gctx, keys.DevicePrefix(org, id), id)}
			return nil
		})
	}
	_ = g.Wait()
	return devices, nil
}

// displayName reads the optional descriptor at prefix. Any failure falls back
// to id.
func (s *Service) displayName(ctx context.Context, prefix, id string) string {
	data, err := s.store.GetObject(ctx, keys.Join(prefix, keys.DescriptorFile))
	if err != nil {
		if !errors.Is(err, objectstore.ErrNotFound) {
			s.log.Warn(ctx, "descriptor read failed", "prefix", prefix, "error", err)
		}
		return id
	}
	var d models.Descriptor
	if err := json.Unmarshal(data, &d); err != nil || d.Name == "" {
		return id
	}
	return d.Name
}

// scanDevice lists all sessions of a device and feeds the prefix index.
func (s *Service) scanDevice(ctx context.Context, org, device string) ([]models.Session, error) {
	list, err := s.scanner.Scan(ctx, keys.DevicePrefix(org, device))
	if err != nil {
		return nil, err
	}
	if s.index != nil && len(list) > 0 {
		entries := make([]prefixindex.Entry, 0, len(list))
		for _, sess := range list {
			entries = append(entries, prefixindex.Entry{Org: sess.Org, Device: sess.Device, FolderName: sess.FolderName, Prefix: sess.ID})
		}
		if err := s.index.Record(ctx, entries...); err != nil {
			s.log.Warn(ctx, "prefix index update failed", "org", org, "device", device, "error", err)
		}
	}
	return list, nil
}

// ListSessions aggregates the device's sessions, most recent first, while the
// org and device display names are resolved concurrently. The query filters
// and pages the result.
func (s *Service) ListSessions(ctx context.Context, org, device string, q models.SessionQuery) (models.SessionPage, error) {
	var (
		all        []models.Session
		orgName    string
		deviceName string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = s.scanDevice(gctx, org, device)
		return err
	})
	g.Go(func() error {
		orgName = s.displayName(gctx, keys.OrgPrefix(org), org)
		return nil
	})
	g.Go(func() error {
		deviceName = s.displayName(gctx, keys.DevicePrefix(org, device), device)
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.SessionPage{}, err
	}

	page := Paginate(Filter(all, q), q.Offset, q.Limit)
	page.OrgDisplayName = orgName
	page.DeviceDisplayName = deviceName
	return page, nil
}

// Filter keeps the sessions that match every set field of q.
func Filter(list []models.Session, q models.SessionQuery) []models.Session {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]models.Session, 0, len(list))
	for _, sess := range list {
		if q.From != nil && sess.Timestamp.Before(*q.From) {
			continue
		}
		if q.To != nil && sess.Timestamp.After(*q.To) {
			continue
		}
		if q.CompleteOnly && !sess.IsComplete() {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(sess.DisplayID), search) &&
			!strings.Contains(strings.ToLower(sess.FolderName), search) {
			continue
		}
		out = append(out, sess)
	}
	return out
}

// Paginate slices list. A zero limit returns everything after offset; larger
// limits are capped at MaxPageLimit.
func Paginate(list []models.Session, offset, limit int) models.SessionPage {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	page := models.SessionPage{Total: len(list), Offset: offset, Limit: limit, Sessions: []models.Session{}}
	if offset >= len(list) {
		return page
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page.Sessions = list[offset:end]
	return page
}

// Calendar buckets the device's sessions by date, newest date first.
func (s *Service) Calendar(ctx context.Context, org, device string) ([]models.CalendarDay, error) {
	list, err := s.scanDevice(ctx, org, device)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*models.CalendarDay)
	days := make([]*models.CalendarDay, 0)
	for _, sess := range list {
		date := sess.Date()
		d, ok := byDate[date]
		if !ok {
			d = &models.CalendarDay{Date: date}
			byDate[date] = d
			days = append(days, d)
		}
		d.Sessions++
		if sess.IsComplete() {
			d.Complete++
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })

	out := make([]models.CalendarDay, len(days))
	for i, d := range days {
		out[i] = *d
	}
	return out, nil
}

// FindSessionPrefix resolves a folder name to the session's full prefix.
func (s *Service) FindSessionPrefix(ctx context.Context, org, device, folderName string) (string, error) {
	return s.resolver.Resolve(ctx, org, device, folderName)
}

// GetSession returns one session with a presigned read URL for each file of a
// known role. A URL that cannot be signed is left out.
func (s *Service) GetSession(ctx context.Context, org, device, folderName string) (models.SessionDetail, error) {
	prefix, err := s.resolver.Resolve(ctx, org, device, folderName)
	if err != nil {
		return models.SessionDetail{}, err
	}

	list, err := s.scanner.Scan(ctx, prefix+keys.Separator)
	if err != nil {
		return models.SessionDetail{}, err
	}
	if len(list) == 0 {
		return models.SessionDetail{}, ErrSessionNotFound
	}

	detail := models.SessionDetail{Session: list[0], URLs: make(map[models.Role]string)}
	for _, f := range detail.Session.Files {
		if f.Role == models.RoleUnknown {
			continue
		}
		if _, done := detail.URLs[f.Role]; done {
			continue
		}
		u, err := s.store.PresignGet(ctx, f.Key, s.presignTTL)
		if err != nil {
			s.log.Warn(ctx, "presign failed", "key", f.Key, "error", err)
			continue
		}
		detail.URLs[f.Role] = u
	}
	return detail, nil
}

// ErrFileNotFound is returned by OpenMedia when the session has no file for
// the requested role.
var ErrFileNotFound = fmt.Errorf("file %w", common.ErrorNotFound)

// OpenMedia streams the first stored file of role from the session. The
// caller closes the returned body.
func (s *Service) OpenMedia(ctx context.Context, org, device, folderName string, role models.Role) (*objectstore.Reader, models.FileEntry, error) {
	prefix, err := s.resolver.Resolve(ctx, org, device, folderName)
	if err != nil {
		return nil, models.FileEntry{}, err
	}

	list, err := s.scanner.Scan(ctx, prefix+keys.Separator)
	if err != nil {
		return nil, models.FileEntry{}, err
	}
	if len(list) == 0 {
		return nil, models.FileEntry{}, ErrSessionNotFound
	}

	f, ok := list[0].File(role)
	if !ok {
		return nil, models.FileEntry{}, ErrFileNotFound
	}
	r, err := s.store.OpenObject(ctx, f.Key)
	if err != nil {
		return nil, models.FileEntry{}, err
	}
	return r, f, nil
}
