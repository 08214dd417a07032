package handlers

// AppHandlers holds every HTTP handler of the application.
type AppHandlers struct {
	AuthHandler        *AuthHandler
	CourseHandler      *CourseHandler
	ReviewHandler      *ReviewHandler
	AdminReviewHandler *AdminReviewHandler
	UploadHandler      *UploadHandler
	ChatHandler        *ChatHandler
}
