package http

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
	"github.com/fyrsmithlabs/calorilog/internal/app"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
	"github.com/fyrsmithlabs/calorilog/internal/images"
)

const monthLayout = "2006-01"

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   s.version,
		Analyzing: s.tracker.Analyzing(),
	})
}

func (s *Server) handleDashboard(c echo.Context) error {
	now := s.tracker.Now()
	if q := c.QueryParam("date"); q != "" {
		d, err := diary.ParseDateKey(q)
		if err != nil {
			return err
		}
		now = d
	}
	dash, err := s.tracker.Dashboard(c.Request().Context(), now)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dash)
}

func (s *Server) handleCalendar(c echo.Context) error {
	anchor := s.tracker.Now()
	if q := c.QueryParam("month"); q != "" {
		m, err := time.ParseInLocation(monthLayout, q, time.Local)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "month must be YYYY-MM")
		}
		anchor = m
	}
	days, err := s.tracker.Calendar(c.Request().Context(), anchor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CalendarResponse{Month: anchor.Format(monthLayout), Days: days})
}

func (s *Server) handleDay(c echo.Context) error {
	date := c.Param("date")
	entries, err := s.tracker.EntriesFor(c.Request().Context(), date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.day(date, entries))
}

func (s *Server) handleAddEntry(c echo.Context) error {
	var e diary.FoodEntry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	date := c.Param("date")
	ctx := c.Request().Context()
	if err := s.tracker.AddEntry(ctx, date, e); err != nil {
		return err
	}
	entries, err := s.tracker.EntriesFor(ctx, date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, s.day(date, entries))
}

func (s *Server) handleUpdateEntry(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	var e diary.FoodEntry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	date := c.Param("date")
	ctx := c.Request().Context()
	if err := s.tracker.UpdateEntry(ctx, date, index, e); err != nil {
		return err
	}
	entries, err := s.tracker.EntriesFor(ctx, date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.day(date, entries))
}

func (s *Server) handleRemoveEntry(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	if err := s.tracker.RemoveEntry(c.Request().Context(), c.Param("date"), index); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleLogMeal(c echo.Context) error {
	var in app.MealInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	if _, err := s.tracker.LogMeal(ctx, in); err != nil {
		return err
	}
	date := in.Date
	if date == "" {
		date = s.tracker.Today()
	}
	entries, err := s.tracker.EntriesFor(ctx, date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, s.day(date, entries))
}

func (s *Server) handleRecent(c echo.Context) error {
	days, err := s.tracker.RecentDays(c.Request().Context())
	if err != nil {
		return err
	}
	if days == nil {
		days = []aggregate.DayEntries{}
	}
	return c.JSON(http.StatusOK, days)
}

func (s *Server) handleCopy(c echo.Context) error {
	var req CopyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	n, err := s.tracker.CopyToToday(c.Request().Context(), req.Selections)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CopyResponse{Copied: n, Message: app.CopyMessage(n)})
}

func (s *Server) handleSheet(c echo.Context) error {
	key, dir, err := sheetOrder(c)
	if err != nil {
		return err
	}
	rows, err := s.tracker.Sheet(c.Request().Context(), key, dir)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []aggregate.Row{}
	}
	return c.JSON(http.StatusOK, SheetResponse{Sort: key, Dir: dir, Rows: rows})
}

func (s *Server) handleExport(c echo.Context) error {
	key, dir, err := sheetOrder(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	name, err := s.tracker.ExportCSV(c.Request().Context(), &buf, key, dir)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) handleWeights(c echo.Context) error {
	points, err := s.tracker.WeightTrend(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, points)
}

func (s *Server) handleLogWeight(c echo.Context) error {
	var req WeightRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := s.tracker.LogWeight(ctx, req.Date, req.Weight); err != nil {
		return err
	}
	points, err := s.tracker.WeightTrend(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, points)
}

func (s *Server) handleGoals(c echo.Context) error {
	g, err := s.tracker.Goals(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, g)
}

func (s *Server) handleSetGoals(c echo.Context) error {
	var g diary.UserGoals
	if err := c.Bind(&g); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.tracker.SetGoals(c.Request().Context(), g); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, g)
}

func (s *Server) handleCredential(c echo.Context) error {
	ok, err := s.tracker.HasCredential(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CredentialResponse{Configured: ok})
}

func (s *Server) handleSetCredential(c echo.Context) error {
	var req CredentialRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := s.tracker.SetCredential(c.Request().Context(), req.APIKey); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CredentialResponse{Configured: true})
}

func (s *Server) handleClearCredential(c echo.Context) error {
	if err := s.tracker.ClearCredential(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleTheme(c echo.Context) error {
	theme, err := s.tracker.Theme(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ThemeBody{Theme: string(theme)})
}

func (s *Server) handleSetTheme(c echo.Context) error {
	var req ThemeBody
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := s.tracker.SetTheme(c.Request().Context(), diary.Theme(req.Theme)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, req)
}

func (s *Server) handleImage(c echo.Context) error {
	if s.images == nil {
		return images.ErrNotFound
	}
	ref, err := url.PathUnescape(c.Param("*"))
	if err != nil || ref == "" {
		return images.ErrInvalidRef
	}
	data, contentType, err := s.images.Get(c.Request().Context(), ref)
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "private, max-age=86400")
	return c.Blob(http.StatusOK, contentType, data)
}

func (s *Server) day(date string, entries []diary.FoodEntry) DayResponse {
	if entries == nil {
		entries = []diary.FoodEntry{}
	}
	return DayResponse{
		Date:    date,
		Entries: entries,
		Totals:  aggregate.DailyTotals(diary.FoodLog{date: entries}, date),
	}
}

func indexParam(c echo.Context) (int, error) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "index must be a non-negative integer")
	}
	return i, nil
}

func sheetOrder(c echo.Context) (aggregate.SortKey, aggregate.Direction, error) {
	key, err := aggregate.ParseSortKey(strings.TrimSpace(c.QueryParam("sort")))
	if err != nil {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	dir, err := aggregate.ParseDirection(strings.TrimSpace(c.QueryParam("dir")))
	if err != nil {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return key, dir, nil
}
