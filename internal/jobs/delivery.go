package jobs

import "github.com/labstack/echo/v4"

type Handler interface {
	StartJob() echo.HandlerFunc
	GetJob() echo.HandlerFunc
	ListJobs() echo.HandlerFunc
	GetDownloadURL() echo.HandlerFunc
}
