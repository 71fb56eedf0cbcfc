package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/temic137/forms-sub004/internal/models"
	"github.com/temic137/forms-sub004/internal/repositories"
)

type submissionService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewSubmissionService(repo repositories.Repository, logger *slog.Logger) SubmissionService {
	return &submissionService{
		repo:   repo,
		logger: logger,
	}
}

func (s *submissionService) List(ctx context.Context, formID uint, filters repositories.SubmissionFilters, userID string) (*SubmissionListResponse, error) {
	if _, err := loadOwnedForm(ctx, s.repo, formID, userID, "list_submissions"); err != nil {
		return nil, err
	}

	filters.Limit, filters.Offset = normalizePage(filters.Limit, filters.Offset)
	submissions, total, err := s.repo.Submission().ListByForm(ctx, nil, formID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	out := make([]*SubmissionResponse, 0, len(submissions))
	for _, sub := range submissions {
		resp, err := buildSubmissionResponse(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}

	return &SubmissionListResponse{
		Submissions: out,
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}, nil
}

func (s *submissionService) Get(ctx context.Context, formID, submissionID uint, userID string) (*SubmissionResponse, error) {
	if _, err := loadOwnedForm(ctx, s.repo, formID, userID, "read_submission"); err != nil {
		return nil, err
	}

	sub, err := s.repo.Submission().GetByID(ctx, nil, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if sub.FormID != formID {
		return nil, ErrSubmissionNotFound
	}

	return buildSubmissionResponse(sub)
}

func (s *submissionService) GetStats(ctx context.Context, formID uint, userID string) (*repositories.SubmissionStats, error) {
	if _, err := loadOwnedForm(ctx, s.repo, formID, userID, "read_stats"); err != nil {
		return nil, err
	}

	stats, err := s.repo.Submission().GetStats(ctx, nil, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission stats: %w", err)
	}
	return stats, nil
}

// listAll pages through every submission of a form, oldest first.
func (s *submissionService) listAll(ctx context.Context, formID uint) ([]*models.Submission, error) {
	var all []*models.Submission
	filters := repositories.SubmissionFilters{
		Limit:     maxPageSize,
		SortBy:    "submitted_at",
		SortOrder: "asc",
	}

	for {
		page, total, err := s.repo.Submission().ListByForm(ctx, nil, formID, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to list submissions: %w", err)
		}
		all = append(all, page...)
		if len(page) == 0 || int64(len(all)) >= total {
			return all, nil
		}
		filters.Offset += len(page)
	}
}

func buildSubmissionResponse(sub *models.Submission) (*SubmissionResponse, error) {
	answers, err := sub.DecodeAnswers()
	if err != nil {
		return nil, fmt.Errorf("submission %d: %w", sub.ID, err)
	}
	detail, err := sub.DecodeScoreDetail()
	if err != nil {
		return nil, fmt.Errorf("submission %d: %w", sub.ID, err)
	}

	return &SubmissionResponse{
		ID:           sub.ID,
		FormID:       sub.FormID,
		FormVersion:  sub.FormVersion,
		RespondentID: sub.RespondentID,
		Answers:      answers,
		Earned:       sub.Earned,
		Possible:     sub.Possible,
		Percentage:   sub.Percentage,
		Passed:       sub.Passed,
		ScoreDetail:  detail,
		SubmittedAt:  sub.SubmittedAt,
	}, nil
}
