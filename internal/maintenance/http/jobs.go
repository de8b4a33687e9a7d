package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/traceline/internal/maintenance/service"
	"github.com/aussiebroadwan/traceline/pkg/httpx"
	"github.com/aussiebroadwan/traceline/pkg/jobsdk"
	"github.com/aussiebroadwan/traceline/pkg/slogx"
)

type JobsHandler struct {
	Runner    *service.Runner
	Schedules []service.Schedule
}

// HandleRun runs a single job
//
//	@Summary		Run a maintenance job
//	@Description	Runs the named job synchronously and returns its result. A job that ran but failed
//	@Description	answers 200 with success=false. Requires maintenance:run scope.
//	@Tags			Jobs
//	@Produce		json
//	@Param			name	path		string						true	"Job name"
//	@Success		200		{object}	jobsdk.JobResultResponse	"Job result"
//	@Failure		401		{object}	jobsdk.ErrorResponse		"Unauthorized - missing or invalid token"
//	@Failure		403		{object}	jobsdk.ErrorResponse		"Forbidden - missing required scope"
//	@Failure		404		{object}	jobsdk.ErrorResponse		"Unknown job"
//	@Failure		409		{object}	jobsdk.ErrorResponse		"Job already running"
//	@Failure		429		{object}	jobsdk.ErrorResponse		"Rate limited"
//	@Failure		503		{object}	jobsdk.ErrorResponse		"Job lock unavailable"
//	@Security		BearerAuth
//	@Router			/v1/jobs/{name}/run [post].
func (h *JobsHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	name := r.PathValue("name")

	res, err := h.Runner.Run(ctx, name)
	switch {
	case errors.Is(err, service.ErrUnknownJob):
		httpx.WriteJSON(w, http.StatusNotFound, jobsdk.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "Unknown job " + name,
		})
		return
	case errors.Is(err, service.ErrJobLocked):
		httpx.WriteJSON(w, http.StatusConflict, jobsdk.ErrorResponse{
			Error:            "job_locked",
			ErrorDescription: "Job is already running",
		})
		return
	case err != nil:
		log.Error("failed to run job", "job", name, "error", err)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, jobsdk.ErrorResponse{
			Error:            "lock_unavailable",
			ErrorDescription: "Could not acquire the job lock",
		})
		return
	}

	log.Info("job triggered over http", "job", name, "success", res.Success)
	httpx.WriteJSON(w, http.StatusOK, toResultResponse(res))
}

// HandleRunAll runs every job
//
//	@Summary		Run all maintenance jobs
//	@Description	Runs every registered job concurrently. Jobs held by another runner are reported as skipped.
//	@Description	Requires maintenance:run scope.
//	@Tags			Jobs
//	@Produce		json
//	@Success		200	{object}	jobsdk.RunAllResponse	"Job results in registration order"
//	@Failure		401	{object}	jobsdk.ErrorResponse	"Unauthorized - missing or invalid token"
//	@Failure		403	{object}	jobsdk.ErrorResponse	"Forbidden - missing required scope"
//	@Failure		429	{object}	jobsdk.ErrorResponse	"Rate limited"
//	@Security		BearerAuth
//	@Router			/v1/jobs/run [post].
func (h *JobsHandler) HandleRunAll(w http.ResponseWriter, r *http.Request) {
	results := h.Runner.RunAll(r.Context())

	resp := jobsdk.RunAllResponse{
		Success: service.AllSucceeded(results),
		Results: make([]jobsdk.JobResultResponse, len(results)),
	}
	for i, res := range results {
		resp.Results[i] = toResultResponse(res)
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleList lists the registered jobs
//
//	@Summary		List maintenance jobs
//	@Description	Returns the registered jobs and their schedule interval ("" when not scheduled).
//	@Description	Requires maintenance:read or maintenance:run scope.
//	@Tags			Jobs
//	@Produce		json
//	@Success		200	{object}	jobsdk.JobsResponse		"Registered jobs"
//	@Failure		401	{object}	jobsdk.ErrorResponse	"Unauthorized - missing or invalid token"
//	@Failure		403	{object}	jobsdk.ErrorResponse	"Forbidden - missing required scope"
//	@Security		BearerAuth
//	@Router			/v1/jobs [get].
func (h *JobsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	intervals := make(map[string]string, len(h.Schedules))
	for _, sc := range h.Schedules {
		if sc.Interval > 0 {
			intervals[sc.Job] = sc.Interval.String()
		}
	}

	jobs := h.Runner.Jobs()
	resp := jobsdk.JobsResponse{Jobs: make([]jobsdk.JobInfo, len(jobs))}
	for i, j := range jobs {
		resp.Jobs[i] = jobsdk.JobInfo{Name: j.Name(), Interval: intervals[j.Name()]}
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

func toResultResponse(res service.Result) jobsdk.JobResultResponse {
	return jobsdk.JobResultResponse{
		Job:        res.Job,
		Success:    res.Success,
		Skipped:    res.Skipped,
		Error:      res.Error(),
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		DurationMS: res.Duration().Milliseconds(),
		Stats:      res.Stats,
	}
}
