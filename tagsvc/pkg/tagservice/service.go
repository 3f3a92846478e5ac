package tagservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/tagsvc"
	"github.com/ichigozero/todokit/validation"
)

type Service interface {
	Tags(ctx context.Context, a authsvc.Identity) ([]tagsvc.Tag, error)
	Tag(ctx context.Context, a authsvc.Identity, tagID uint64) (tagsvc.Tag, error)
	CreateTag(ctx context.Context, a authsvc.Identity, name, color string) (tagsvc.Tag, error)
	UpdateTag(ctx context.Context, a authsvc.Identity, tagID uint64, name, color string) (tagsvc.Tag, error)
	DeleteTag(ctx context.Context, a authsvc.Identity, tagID uint64) error
}

func New(tags tagsvc.TagRepository, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(tags)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	tags tagsvc.TagRepository
}

func NewBasicService(tags tagsvc.TagRepository) Service {
	return basicService{tags: tags}
}

type tagInput struct {
	Name  string `json:"name" validate:"min=1,max=50"`
	Color string `json:"color" validate:"len=7,hexcolor"`
}

// input trims name and falls back to tagsvc.DefaultColor when color is
// empty.
func input(name, color string) (tagInput, error) {
	in := tagInput{Name: strings.TrimSpace(name), Color: strings.TrimSpace(color)}
	if in.Color == "" {
		in.Color = tagsvc.DefaultColor
	}
	if err := validation.Struct(in); err != nil {
		return tagInput{}, fmt.Errorf("%w: %v", tagsvc.ErrInvalidArgument, err)
	}
	return in, nil
}

func (s basicService) Tags(ctx context.Context, a authsvc.Identity) ([]tagsvc.Tag, error) {
	if a.UserID == 0 {
		return nil, authsvc.ErrUnauthenticated
	}
	return s.tags.List(ctx, a.UserID)
}

func (s basicService) Tag(ctx context.Context, a authsvc.Identity, tagID uint64) (tagsvc.Tag, error) {
	if a.UserID == 0 {
		return tagsvc.Tag{}, authsvc.ErrUnauthenticated
	}
	return s.tags.Find(ctx, a.UserID, tagID)
}

func (s basicService) CreateTag(ctx context.Context, a authsvc.Identity, name, color string) (tagsvc.Tag, error) {
	if a.UserID == 0 {
		return tagsvc.Tag{}, authsvc.ErrUnauthenticated
	}

	in, err := input(name, color)
	if err != nil {
		return tagsvc.Tag{}, err
	}

	tag := tagsvc.Tag{Name: in.Name, Color: in.Color, UserID: a.UserID}
	if err := s.tags.Create(ctx, &tag); err != nil {
		return tagsvc.Tag{}, err
	}
	return tag, nil
}

// UpdateTag replaces both name and color.
func (s basicService) UpdateTag(ctx context.Context, a authsvc.Identity, tagID uint64, name, color string) (tagsvc.Tag, error) {
	if a.UserID == 0 {
		return tagsvc.Tag{}, authsvc.ErrUnauthenticated
	}

	in, err := input(name, color)
	if err != nil {
		return tagsvc.Tag{}, err
	}

	return s.tags.Update(ctx, tagsvc.Tag{ID: tagID, Name: in.Name, Color: in.Color, UserID: a.UserID})
}

func (s basicService) DeleteTag(ctx context.Context, a authsvc.Identity, tagID uint64) error {
	if a.UserID == 0 {
		return authsvc.ErrUnauthenticated
	}

	ok, err := s.tags.Delete(ctx, a.UserID, tagID)
	if err != nil {
		return err
	}
	if !ok {
		return tagsvc.ErrTagNotFound
	}
	return nil
}
