// Package site assembles the public landing page payload.
package site

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/content/clients"
	"github.com/kreasi-nusantara/compro/internal/content/company"
	"github.com/kreasi-nusantara/compro/internal/content/products"
	"github.com/kreasi-nusantara/compro/internal/content/projects"
	"github.com/kreasi-nusantara/compro/internal/content/services"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Section sizes on the landing page.
const (
	latestServices = 6
	latestProducts = 6
	latestProjects = 6
	latestClients  = 12
)

// Home is the landing page payload. Company is nil until a profile is saved.
type Home struct {
	Company  *company.Profile   `json:"company"`
	Services []services.Service `json:"services"`
	Products []products.Product `json:"products"`
	Projects []projects.Project `json:"projects"`
	Clients  []clients.Client   `json:"clients"`
}

// ProfileSource reads the company profile.
type ProfileSource interface {
	GetProfile(ctx context.Context) (company.Profile, error)
}

// ServiceSource lists services.
type ServiceSource interface {
	ListServices(ctx context.Context, f content.ListFilters) (content.ListResult[services.Service], error)
}

// ProductSource lists products.
type ProductSource interface {
	ListProducts(ctx context.Context, f content.ListFilters) (content.ListResult[products.Product], error)
}

// ProjectSource lists projects.
type ProjectSource interface {
	ListProjects(ctx context.Context, f projects.Filters) (content.ListResult[projects.Project], error)
}

// ClientSource lists clients.
type ClientSource interface {
	ListClients(ctx context.Context, f content.ListFilters) (content.ListResult[clients.Client], error)
}

// Sources are the read sides the landing page draws from.
type Sources struct {
	Company  ProfileSource
	Services ServiceSource
	Products ProductSource
	Projects ProjectSource
	Clients  ClientSource
}

// Service loads the landing page.
type Service struct {
	src Sources
}

// NewService builds Service instance.
func NewService(src Sources) *Service {
	return &Service{src: src}
}

func latest(limit int) content.ListFilters {
	return content.ListFilters{Sort: "created_at", Desc: true, Page: 1, Limit: limit}
}

// Home loads every section concurrently. Any failing section fails the page.
func (s *Service) Home(ctx context.Context) (Home, error) {
	var home Home
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.src.Company.GetProfile(ctx)
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		home.Company = &p
		return nil
	})

	g.Go(func() error {
		res, err := s.src.Services.ListServices(ctx, latest(latestServices))
		if err != nil {
			return err
		}
		home.Services = res.Data
		return nil
	})

	g.Go(func() error {
		res, err := s.src.Products.ListProducts(ctx, latest(latestProducts))
		if err != nil {
			return err
		}
		home.Products = res.Data
		return nil
	})

	g.Go(func() error {
		res, err := s.src.Projects.ListProjects(ctx, projects.Filters{ListFilters: latest(latestProjects)})
		if err != nil {
			return err
		}
		home.Projects = res.Data
		return nil
	})

	g.Go(func() error {
		res, err := s.src.Clients.ListClients(ctx, latest(latestClients))
		if err != nil {
			return err
		}
		home.Clients = res.Data
		return nil
	})

	if err := g.Wait(); err != nil {
		return Home{}, err
	}
	return home, nil
}
