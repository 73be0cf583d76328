package deploy

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"querydesk/internal/domain"
)

// Discovery and enrichment bounds. The page cap keeps a pathological
// remote API from being crawled without end; the concurrency width keeps
// detail fetches from hammering it all at once.
const (
	discoveryPageSize = 50
	maxDiscoveryPages = 25
	detailConcurrency = 5
)

// detailResult tracks one enrichment fetch independently, preserving the
// per-item attribution the partial-result signal needs.
type detailResult struct {
	automation *domain.RemoteAutomation
	err        error
}

// BlastRadius discovers all remote automations and reports those whose
// step/activity tree references the saved query's linked remote object.
// Discovery failure aborts the whole analysis; individual detail failures
// only degrade the result to partial.
func (s *Service) BlastRadius(ctx context.Context, savedQueryID string) (*domain.BlastRadius, error) {
	q, err := s.requireLinked(ctx, savedQueryID)
	if err != nil {
		return nil, err
	}
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	summaries, err := s.discoverAutomations(ctx, scope)
	if err != nil {
		return nil, err
	}

	results := s.fetchDetails(ctx, scope, summaries)

	radius := &domain.BlastRadius{}
	for i, res := range results {
		if res.err != nil {
			// Unknown, not "does not match".
			radius.FailedDetailCount++
			s.logger.Warn("automation detail fetch failed",
				"automation", summaries[i].ID, "error", res.err)
			continue
		}
		if !referencesObject(res.automation, q.Link.RemoteObjectID, q.Link.RemoteKey) {
			continue
		}

		status := res.automation.StatusCode
		if status == statusUnset {
			status = summaries[i].StatusCode
		}
		name := res.automation.Name
		if name == "" {
			name = summaries[i].Name
		}
		radius.Automations = append(radius.Automations, domain.AutomationImpact{
			ID:         summaries[i].ID,
			Name:       name,
			Status:     statusLabel(status),
			IsHighRisk: isHighRisk(status),
		})
	}

	radius.TotalCount = len(radius.Automations)
	radius.Partial = radius.FailedDetailCount > 0
	return radius, nil
}

// discoverAutomations pages through the automation list sequentially,
// deduplicating ids and stopping on: an empty page, a page with no new
// ids, the reported total reached, or the hard page cap.
func (s *Service) discoverAutomations(ctx context.Context, scope domain.Scope) ([]automationSummary, error) {
	var summaries []automationSummary
	seen := make(map[string]struct{})

	for page := 1; page <= maxDiscoveryPages; page++ {
		doc, err := s.gateway.Request(ctx, scope, domain.RemoteRequest{
			Kind:     domain.RemoteGetAutomationList,
			Page:     page,
			PageSize: discoveryPageSize,
		})
		if err != nil {
			return nil, err
		}

		items, total := parseAutomationPage(doc)
		if len(items) == 0 {
			break
		}

		newIDs := 0
		for _, item := range items {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			summaries = append(summaries, item)
			newIDs++
		}
		if newIDs == 0 {
			// A misbehaving page that only repeats earlier ids would loop
			// forever without this.
			break
		}
		if total > 0 && len(summaries) >= total {
			break
		}
	}

	return summaries, nil
}

// fetchDetails enriches the discovered automations with bounded
// concurrency. Each fetch succeeds or fails on its own.
func (s *Service) fetchDetails(ctx context.Context, scope domain.Scope, summaries []automationSummary) []detailResult {
	results := make([]detailResult, len(summaries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailConcurrency)

	for i := range summaries {
		g.Go(func() error {
			doc, err := s.gateway.Request(gctx, scope, domain.RemoteRequest{
				Kind:         domain.RemoteGetAutomationDetail,
				AutomationID: summaries[i].ID,
			})
			if err != nil {
				results[i] = detailResult{err: err}
				return nil // a failed fetch must not abort the others
			}
			results[i] = detailResult{automation: parseAutomationDetail(summaries[i].ID, doc)}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// referencesObject reports whether any activity at any step is a Query
// Activity pointing at the linked object. Both the remote object id and
// the remote key are valid targets because the platform is inconsistent
// about which identifier activities store; comparison is case-insensitive.
func referencesObject(auto *domain.RemoteAutomation, remoteObjectID, remoteKey string) bool {
	for _, step := range auto.Steps {
		for _, activity := range step.Activities {
			if activity.ObjectTypeKindID != domain.QueryActivityKind {
				continue
			}
			ref := activity.ReferencedObjectID
			if ref == "" {
				continue
			}
			if strings.EqualFold(ref, remoteObjectID) || strings.EqualFold(ref, remoteKey) {
				return true
			}
		}
	}
	return false
}
