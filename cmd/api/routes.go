package main

import (
	"net/http"
	"strings"

	httpSwagger "github.com/swaggo/http-swagger"

	"academy-portal/internal/config"
	"academy-portal/internal/handlers"
	"academy-portal/internal/middleware"
	"academy-portal/internal/models"
)

const apiPrefix = "/api/v1"

// api bundles every handler mounted on the router
type api struct {
	auth         *handlers.AuthHandler
	users        *handlers.UserHandler
	activity     *handlers.ActivityHandler
	competitions *handlers.CompetitionHandler
	applications *handlers.ApplicationHandler
	quizzes      *handlers.QuizHandler
	training     *handlers.TrainingHandler
	personnel    *handlers.PersonnelHandler
	health       *handlers.HealthHandler
}

// router registers routes on a ServeMux with the shared auth middleware
type router struct {
	mux          *http.ServeMux
	authMw       *middleware.AuthMiddleware
	loginLimiter func(http.Handler) http.Handler
}

func (rt *router) public(pattern string, h http.HandlerFunc) {
	method, path := splitPattern(pattern)
	rt.mux.Handle(method+" "+apiPrefix+path, h)
}

// optional attaches claims when a token is sent
func (rt *router) optional(pattern string, h http.HandlerFunc) {
	method, path := splitPattern(pattern)
	rt.mux.Handle(method+" "+apiPrefix+path, rt.authMw.OptionalAuth(h))
}

// login is a public route with the credential rate limit budget
func (rt *router) login(pattern string, h http.HandlerFunc) {
	method, path := splitPattern(pattern)
	rt.mux.Handle(method+" "+apiPrefix+path, rt.loginLimiter(h))
}

// staff requires a staff token holding one of roles; an empty list only
// requires authentication
func (rt *router) staff(pattern string, h http.HandlerFunc, roles ...string) {
	method, path := splitPattern(pattern)
	var handler http.Handler = h
	if len(roles) > 0 {
		handler = middleware.RequireAnyRole(roles...)(handler)
	}
	rt.mux.Handle(method+" "+apiPrefix+path, rt.authMw.Authenticate(handler))
}

// candidate requires a candidate token issued by the private competition login
func (rt *router) candidate(pattern string, h http.HandlerFunc) {
	method, path := splitPattern(pattern)
	rt.mux.Handle(method+" "+apiPrefix+path, rt.authMw.AuthenticateCandidate(h))
}

func splitPattern(pattern string) (string, string) {
	method, path, _ := strings.Cut(pattern, " ")
	return method, path
}

func setupRoutes(cfg *config.Config, a *api, authMw *middleware.AuthMiddleware, limiter middleware.Limiter, proxies middleware.TrustedProxies) *http.ServeMux {
	rt := &router{
		mux:    http.NewServeMux(),
		authMw: authMw,
		loginLimiter: func(next http.Handler) http.Handler {
			return next
		},
	}
	if cfg.RateLimit.Enabled {
		rt.loginLimiter = middleware.RateLimit(limiter, middleware.KeyByIP("login", proxies), cfg.RateLimit.LoginRequests, cfg.RateLimit.LoginDuration)
	}

	const (
		admin      = models.RoleAdmin
		instructor = models.RoleInstructor
		reviewer   = models.RoleReviewer
	)

	// Auth
	rt.login("POST /auth/login", a.auth.Login)
	rt.staff("GET /auth/me", a.auth.Me)

	// Public competitions
	rt.public("GET /competitions", a.competitions.ListCompetitions)
	rt.optional("GET /competitions/{id}", a.competitions.GetCompetition)
	rt.optional("GET /competitions/{id}/questions", a.competitions.ListQuestions)
	rt.optional("POST /competitions/{id}/participations", a.competitions.SubmitParticipation)
	rt.login("POST /private-competitions/login", a.competitions.PrivateLogin)
	rt.candidate("GET /private-competitions/session", a.competitions.CandidateSession)

	// Public forms
	rt.public("GET /forms", a.applications.ListActiveForms)
	rt.public("GET /forms/{id}", a.applications.GetActiveForm)
	rt.public("POST /forms/{id}/applications", a.applications.SubmitApplication)

	// Public quizzes
	rt.public("GET /quizzes", a.quizzes.ListActiveQuizzes)
	rt.public("GET /quizzes/{id}", a.quizzes.GetActiveQuiz)
	rt.public("POST /quizzes/{id}/participants", a.quizzes.Register)
	rt.public("POST /quizzes/{id}/attempts", a.quizzes.StartAttempt)
	rt.public("POST /quiz-attempts/{attemptId}/complete", a.quizzes.CompleteAttempt)

	// Competitions
	rt.staff("GET /admin/competitions", a.competitions.AdminListCompetitions, instructor)
	rt.staff("POST /admin/competitions", a.competitions.CreateCompetition, instructor)
	rt.staff("POST /admin/competitions/close-expired", a.competitions.CloseExpired, instructor)
	rt.staff("PUT /admin/competitions/{id}", a.competitions.UpdateCompetition, instructor)
	rt.staff("DELETE /admin/competitions/{id}", a.competitions.DeleteCompetition, instructor)
	rt.staff("POST /admin/competitions/{id}/questions", a.competitions.AddQuestion, instructor)
	rt.staff("PUT /admin/competition-questions/{questionId}", a.competitions.UpdateQuestion, instructor)
	rt.staff("DELETE /admin/competition-questions/{questionId}", a.competitions.DeleteQuestion, instructor)
	rt.staff("GET /admin/competitions/{id}/invitations", a.competitions.ListInvitations, instructor)
	rt.staff("POST /admin/competitions/{id}/invitations", a.competitions.CreateInvitations, instructor)
	rt.staff("GET /admin/competitions/{id}/invitations.pdf", a.competitions.ExportInvitations, instructor)
	rt.staff("POST /admin/invitations/{invitationId}/used", a.competitions.MarkInvitationUsed, instructor)
	rt.staff("DELETE /admin/invitations/{invitationId}", a.competitions.DeleteInvitation, instructor)
	rt.staff("GET /admin/invitations/{invitationId}/convocation.pdf", a.competitions.ExportConvocation, instructor)
	rt.staff("GET /admin/competitions/{id}/participations", a.competitions.ListParticipations, instructor)
	rt.staff("GET /admin/competitions/{id}/results.pdf", a.competitions.ExportResults, instructor)
	rt.staff("GET /admin/participations/{participationId}", a.competitions.GetParticipation, instructor)
	rt.staff("PUT /admin/participations/{participationId}/grade", a.competitions.GradeParticipation, instructor)
	rt.staff("POST /admin/participations/{participationId}/promote", a.competitions.PromoteParticipation, instructor)

	// Applications
	rt.staff("GET /admin/forms", a.applications.ListForms, reviewer)
	rt.staff("POST /admin/forms", a.applications.CreateForm, reviewer)
	rt.staff("GET /admin/forms/{id}", a.applications.GetForm, reviewer)
	rt.staff("PUT /admin/forms/{id}", a.applications.UpdateForm, reviewer)
	rt.staff("DELETE /admin/forms/{id}", a.applications.DeleteForm, reviewer)
	rt.staff("GET /admin/applications", a.applications.ListApplications, reviewer)
	rt.staff("GET /admin/applications/pending-count", a.applications.PendingCount, reviewer)
	rt.staff("GET /admin/applications/{id}", a.applications.GetApplication, reviewer)
	rt.staff("PUT /admin/applications/{id}/review", a.applications.ReviewApplication, reviewer)
	rt.staff("POST /admin/applications/{id}/accept", a.applications.AcceptApplication, reviewer)
	rt.staff("DELETE /admin/applications/{id}", a.applications.DeleteApplication, reviewer)

	// Quizzes
	rt.staff("GET /admin/quizzes", a.quizzes.ListQuizzes, instructor)
	rt.staff("POST /admin/quizzes", a.quizzes.CreateQuiz, instructor)
	rt.staff("GET /admin/quizzes/{id}", a.quizzes.GetQuiz, instructor)
	rt.staff("PUT /admin/quizzes/{id}", a.quizzes.UpdateQuiz, instructor)
	rt.staff("DELETE /admin/quizzes/{id}", a.quizzes.DeleteQuiz, instructor)
	rt.staff("POST /admin/quizzes/{id}/questions", a.quizzes.AddQuestion, instructor)
	rt.staff("PUT /admin/quiz-questions/{questionId}", a.quizzes.UpdateQuestion, instructor)
	rt.staff("DELETE /admin/quiz-questions/{questionId}", a.quizzes.DeleteQuestion, instructor)
	rt.staff("GET /admin/quizzes/{id}/participants", a.quizzes.ListParticipants, instructor)
	rt.staff("GET /admin/quizzes/{id}/attempts", a.quizzes.ListAttempts, instructor)
	rt.staff("POST /admin/quizzes/{id}/attempts", a.quizzes.RecordAttempt, instructor)

	// Training
	rt.staff("GET /admin/candidates", a.training.ListCandidates, instructor)
	rt.staff("POST /admin/candidates", a.training.CreateCandidate, instructor)
	rt.staff("GET /admin/candidates/{id}", a.training.GetCandidate, instructor)
	rt.staff("PUT /admin/candidates/{id}", a.training.UpdateCandidate, instructor)
	rt.staff("DELETE /admin/candidates/{id}", a.training.DeleteCandidate, instructor)
	rt.staff("POST /admin/candidates/{id}/certify", a.training.CertifyCandidate, instructor)
	rt.staff("GET /admin/candidates/{id}/scores", a.training.ListScores, instructor)
	rt.staff("PUT /admin/candidates/{id}/scores/{subModuleId}", a.training.RecordScore, instructor)
	rt.staff("GET /admin/candidates/{id}/overall", a.training.OverallScore, instructor)
	rt.staff("GET /admin/candidates/{id}/appreciations", a.training.ListAppreciations, instructor)
	rt.staff("PUT /admin/candidates/{id}/appreciations/{subModuleId}", a.training.SaveAppreciation, instructor)
	rt.staff("DELETE /admin/appreciations/{appreciationId}", a.training.DeleteAppreciation, instructor)
	rt.staff("GET /admin/candidates/{id}/bulletin", a.training.GetBulletin, instructor)
	rt.staff("GET /admin/candidates/{id}/bulletin.pdf", a.training.ExportBulletin, instructor)
	rt.staff("GET /admin/candidates/{id}/module-results.pdf", a.training.ExportModuleResults, instructor)
	rt.staff("GET /admin/modules", a.training.ListModules, instructor)
	rt.staff("POST /admin/modules", a.training.CreateModule, instructor)
	rt.staff("GET /admin/modules/{id}", a.training.GetModule, instructor)
	rt.staff("PUT /admin/modules/{id}", a.training.UpdateModule, instructor)
	rt.staff("DELETE /admin/modules/{id}", a.training.DeleteModule, instructor)
	rt.staff("POST /admin/modules/{id}/sub-modules", a.training.AddSubModule, instructor)
	rt.staff("PUT /admin/sub-modules/{subModuleId}", a.training.UpdateSubModule, instructor)
	rt.staff("DELETE /admin/sub-modules/{subModuleId}", a.training.DeleteSubModule, instructor)

	// Personnel
	rt.staff("GET /admin/agencies", a.personnel.ListAgencies, instructor)
	rt.staff("POST /admin/agencies", a.personnel.CreateAgency, admin)
	rt.staff("DELETE /admin/agencies/{id}", a.personnel.DeleteAgency, admin)
	rt.staff("GET /admin/agencies/{id}/grades", a.personnel.ListGrades, instructor)
	rt.staff("POST /admin/agencies/{id}/grades", a.personnel.CreateGrade, admin)
	rt.staff("DELETE /admin/grades/{gradeId}", a.personnel.DeleteGrade, admin)
	rt.staff("GET /admin/agencies/{id}/specialties", a.personnel.ListSpecialties, instructor)
	rt.staff("POST /admin/agencies/{id}/specialties", a.personnel.CreateSpecialty, admin)
	rt.staff("DELETE /admin/specialties/{specialtyId}", a.personnel.DeleteSpecialty, admin)
	rt.staff("GET /admin/agents", a.personnel.ListAgents, instructor)
	rt.staff("POST /admin/agents", a.personnel.CreateAgent, instructor)
	rt.staff("GET /admin/agents.pdf", a.personnel.ExportAgents, instructor)
	rt.staff("GET /admin/agents/{id}", a.personnel.GetAgent, instructor)
	rt.staff("PUT /admin/agents/{id}", a.personnel.UpdateAgent, instructor)
	rt.staff("DELETE /admin/agents/{id}", a.personnel.DeleteAgent, admin)
	rt.staff("GET /admin/agents/{id}/specialties", a.personnel.ListAgentSpecialties, instructor)
	rt.staff("PUT /admin/agents/{id}/specialties/{specialtyId}", a.personnel.AssignSpecialty, instructor)
	rt.staff("DELETE /admin/agents/{id}/specialties/{specialtyId}", a.personnel.RemoveSpecialty, instructor)
	rt.staff("GET /admin/agents/{id}/disciplinary", a.personnel.ListDisciplinaryRecords, admin)
	rt.staff("POST /admin/agents/{id}/disciplinary", a.personnel.CreateDisciplinaryRecord, admin)
	rt.staff("DELETE /admin/disciplinary/{recordId}", a.personnel.DeleteDisciplinaryRecord, admin)
	rt.staff("GET /admin/agents/{id}/trainings", a.personnel.ListTrainingRecords, instructor)
	rt.staff("POST /admin/agents/{id}/trainings", a.personnel.AddTrainingRecord, instructor)
	rt.staff("DELETE /admin/trainings/{recordId}", a.personnel.DeleteTrainingRecord, instructor)
	rt.staff("GET /admin/agents/{id}/dossier", a.personnel.GetDossier, instructor)
	rt.staff("GET /admin/agents/{id}/dossier.pdf", a.personnel.ExportDossier, instructor)

	// Users and activity
	rt.staff("GET /admin/users", a.users.ListUsers, admin)
	rt.staff("POST /admin/users", a.users.CreateUser, admin)
	rt.staff("GET /admin/users/{id}", a.users.GetUser, admin)
	rt.staff("PATCH /admin/users/{id}/active", a.users.UpdateUserActiveStatus, admin)
	rt.staff("POST /admin/users/{id}/roles", a.users.AssignRole, admin)
	rt.staff("DELETE /admin/users/{id}/roles/{role}", a.users.RemoveRole, admin)
	rt.staff("GET /admin/users/{id}/sheet.pdf", a.users.ExportUserSheet, admin)
	rt.staff("GET /admin/roles", a.users.ListRoles, admin)
	rt.staff("GET /admin/activity", a.activity.ListActivity, admin)
	rt.staff("GET /admin/activity/export.csv", a.activity.ExportActivity, admin)

	rt.mux.HandleFunc("GET /health", a.health.Health)
	rt.mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return rt.mux
}
