package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/relay/internal/core/report"
	"github.com/example/relay/internal/core/retry"
	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/primary"
	"github.com/example/relay/internal/ports/secondary"
)

// debatePayload is the JSON document handed to a debate participant.
type debatePayload struct {
	ProjectID    string         `json:"project_id"`
	Role         string         `json:"role"`
	Plan         string         `json:"plan"`
	Instructions string         `json:"instructions"`
	Mail         []payloadEntry `json:"mail"`
}

// Debate runs the adversarial plan review: the reviewer challenges the plan,
// the planner answers, and the exchange lands on the planning thread as
// ordinary mail. The loop is bounded by the debate cycle ceiling; crossing
// it escalates to the human exactly once and leaves the plan unapproved.
func (s *CoordinatorServiceImpl) Debate(ctx context.Context, projectID string, planDoc []byte) (*primary.DebateSummary, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	threads, err := s.threadRepo.List(ctx, secondary.ThreadFilters{
		ProjectID: projectID,
		Kind:      models.ThreadKindPlanning,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find planning thread: %w", err)
	}
	if len(threads) == 0 {
		return nil, fmt.Errorf("project %s has no planning thread", projectID)
	}
	planningThread := threads[0].ID

	summary := &primary.DebateSummary{ProjectID: projectID}
	counter := retry.New("debate "+projectID, s.settings.DebateMaxCycles,
		func(name string, history []string) {
			body := fmt.Sprintf("Plan debate for %s ran out of cycles without reviewer approval.\n\nRounds:\n%s",
				projectID, strings.Join(history, "\n"))
			_, _ = s.openEscalation(ctx, projectID, "",
				fmt.Sprintf("plan debate exhausted for %s", projectID), body)
		})

	for {
		review, err := s.debateTurn(ctx, projectID, models.RoleReviewer, planDoc, planningThread,
			"Challenge this plan. Report DONE with no concerns only if you would stake the project on it.")
		if err != nil {
			return summary, err
		}

		if review.Status == report.StatusDone && len(review.Concerns) == 0 {
			summary.Cycles = counter.Count()
			summary.Approved = true
			_, err = s.send(ctx, outboundMail{
				threadID:  planningThread,
				projectID: projectID,
				fromRole:  models.RoleReviewer,
				toRole:    models.RolePlanner,
				subject:   "plan approved by review",
				body:      review.CompletedWork,
			})
			return summary, err
		}

		// The reviewer's objections become mail the planner answers.
		for _, c := range review.Concerns {
			if _, err := s.send(ctx, outboundMail{
				threadID:   planningThread,
				projectID:  projectID,
				fromRole:   models.RoleReviewer,
				toRole:     models.RolePlanner,
				subject:    "plan concern",
				body:       c.Content,
				importance: models.ImportanceHigh,
			}); err != nil {
				return summary, err
			}
		}

		note := fmt.Sprintf("reviewer raised %d concern(s)", len(review.Concerns))
		if err := counter.Record(note); err != nil {
			summary.Cycles = counter.Count()
			return summary, nil
		}

		answer, err := s.debateTurn(ctx, projectID, models.RolePlanner, planDoc, planningThread,
			"Answer the reviewer's concerns or amend the plan, then report.")
		if err != nil {
			return summary, err
		}
		if _, err := s.send(ctx, outboundMail{
			threadID:  planningThread,
			projectID: projectID,
			fromRole:  models.RolePlanner,
			toRole:    models.RoleReviewer,
			subject:   "response to plan concerns",
			body:      answer.CompletedWork,
		}); err != nil {
			return summary, err
		}
	}
}

// debateTurn invokes one debate participant with the plan and the planning
// thread so far, and parses its report strictly. Malformed output burns the
// same bounded corrective re-invocations as task workers.
func (s *CoordinatorServiceImpl) debateTurn(ctx context.Context, projectID string, role models.Role, planDoc []byte, planningThread, instructions string) (*report.Report, error) {
	parseCounter := retry.New(fmt.Sprintf("debate parse %s/%s", role, projectID), s.settings.ParseRetries, nil)

	for {
		payload, err := s.buildDebatePayload(ctx, projectID, role, planDoc, planningThread, instructions)
		if err != nil {
			return nil, err
		}

		ictx, cancel := context.WithTimeout(ctx, s.settings.InvocationTimeout)
		raw, err := s.runtime.Invoke(ictx, secondary.WorkerRequest{
			Role:    string(role),
			TaskID:  projectID,
			Payload: payload,
			Attempt: parseCounter.Count() + 1,
		})
		cancel()
		if err != nil {
			return nil, fmt.Errorf("debate %s invocation failed: %w", role, err)
		}

		r, err := report.Parse(raw)
		if err == nil {
			return r, nil
		}
		if rerr := parseCounter.Record(err.Error()); rerr != nil {
			return nil, fmt.Errorf("debate %s kept returning malformed output: %w", role, err)
		}
		instructions = fmt.Sprintf(
			"Your previous output was rejected: %v. Respond with exactly one JSON object matching the result schema and nothing else.", err)
	}
}

func (s *CoordinatorServiceImpl) buildDebatePayload(ctx context.Context, projectID string, role models.Role, planDoc []byte, planningThread, instructions string) (string, error) {
	records, err := s.messageRepo.List(ctx, secondary.MessageFilters{ThreadID: planningThread})
	if err != nil {
		return "", fmt.Errorf("failed to load planning mail: %w", err)
	}

	payload := debatePayload{
		ProjectID:    projectID,
		Role:         string(role),
		Plan:         string(planDoc),
		Instructions: instructions,
		Mail:         make([]payloadEntry, 0, len(records)),
	}
	for _, rec := range records {
		payload.Mail = append(payload.Mail, payloadEntry{
			From:    rec.FromRole,
			To:      rec.ToRole,
			Subject: rec.Subject,
			Body:    rec.Body,
		})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode debate payload: %w", err)
	}
	return string(data), nil
}
