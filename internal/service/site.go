package service

import (
	"time"

	"blog-server/internal/config"
	"blog-server/internal/models"
)

// SiteService serves the public page chrome data.
type SiteService interface {
	Info() models.SiteInfo
}

type siteServiceImpl struct {
	site config.SiteConfig
	now  func() time.Time
}

func NewSiteService(cfg *config.Config) SiteService {
	return &siteServiceImpl{site: cfg.SiteConfig, now: time.Now}
}

func (s *siteServiceImpl) Info() models.SiteInfo {
	year := s.now().Year()
	exp := year - s.site.CareerStartYear
	if exp < 0 {
		exp = 0
	}
	return models.SiteInfo{
		Year:              year,
		YearsOfExperience: exp,
		Links:             s.site.Links(),
	}
}
