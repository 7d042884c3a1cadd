package web

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/seed-estimator/internal/observability"
	"github.com/ironsheep/seed-estimator/internal/upload"
)

// MsgInternal is shown when processing fails for reasons the user cannot fix.
const MsgInternal = "Something went wrong while processing the image. Please try again."

// Evaluate runs one submission through the processor and returns the status
// code and page to answer with. It logs and records metrics for the outcome.
func Evaluate(ctx context.Context, proc *upload.Processor, variant string, sub upload.Submission) (int, Page) {
	log := zerolog.Ctx(ctx)
	page := Page{Density: sub.Density}
	start := time.Now()

	out, err := proc.Process(ctx, sub)
	if err != nil {
		return failure(log, variant, start, page, err)
	}

	observability.RecordEstimate(variant, "ok", out.Area, time.Since(start))
	log.Info().
		Float64("area", out.Area).
		Float64("seeds", out.Seeds).
		Int("density", out.Density).
		Int("contours", out.Contours).
		Msg("estimate")

	page.Result = template.HTML(out.Message)
	page.Preview = template.URL(out.Preview)
	return http.StatusOK, page
}

// Failure is Evaluate for an error that happened before processing, such as
// an unreadable multipart body.
func Failure(ctx context.Context, variant string, density string, err error) (int, Page) {
	return failure(zerolog.Ctx(ctx), variant, time.Now(), Page{Density: density}, err)
}

func failure(log *zerolog.Logger, variant string, start time.Time, page Page, err error) (int, Page) {
	if uerr, ok := upload.AsError(err); ok {
		observability.RecordEstimate(variant, uerr.KindName(), 0, time.Since(start))
		log.Warn().Err(err).Str("kind", uerr.KindName()).Msg("upload rejected")
		page.Error = uerr.Message
		return uerr.Status(), page
	}

	observability.RecordEstimate(variant, "internal", 0, time.Since(start))
	log.Error().Err(err).Msg("upload failed")
	page.Error = MsgInternal
	return http.StatusInternalServerError, page
}
