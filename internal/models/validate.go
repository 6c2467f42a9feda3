package models

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/dmitrijs2005/recviewer/internal/common"
)

var errScoreRange = errors.New("must be between 1 and 5 or null")

func validScore(value any) error {
	o, _ := value.(OptionalInt)
	if o.Value == nil {
		return nil
	}
	if *o.Value < 1 || *o.Value > 5 {
		return errScoreRange
	}
	return nil
}

func anyOf[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Validate checks the score range. An explicit null clears the score.
func (p MetadataPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Score, validation.By(validScore)),
	)
}

func (in NoteInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Timestamp, validation.Min(0.0)),
		validation.Field(&in.Resource, validation.Required, validation.In(anyOf(NoteResources)...)),
		validation.Field(&in.Content, validation.Required),
	)
}

func (p NotePatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Timestamp, validation.Min(0.0)),
		validation.Field(&p.Resource, validation.In(anyOf(NoteResources)...)),
		validation.Field(&p.Content, validation.NilOrNotEmpty),
	)
}

// ValidateAudioRole accepts only transcribable tracks.
func ValidateAudioRole(r Role) error {
	if err := validation.Validate(r, validation.Required, validation.In(anyOf(AudioRoles)...)); err != nil {
		return common.NewValidationError("role", err.Error())
	}
	return nil
}

// ValidateCaptionRole accepts audio roles and their transcript roles.
func ValidateCaptionRole(r Role) error {
	switch r {
	case RoleTranscriptScreen, RoleTranscriptRaw, RoleTranscriptClean:
		return nil
	}
	return ValidateAudioRole(r)
}

// ValidateMediaRole accepts only playable tracks.
func ValidateMediaRole(r Role) error {
	if !r.IsMedia() {
		names := make([]string, len(MediaRoles))
		for i, m := range MediaRoles {
			names[i] = string(m)
		}
		return common.NewValidationError("role", "must be one of "+strings.Join(names, ", "))
	}
	return nil
}
