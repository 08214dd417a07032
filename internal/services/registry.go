package services

// ServiceContainer holds every application service.
type ServiceContainer struct {
	CourseService CourseService
	ReviewService ReviewService
	ReportService ReportService
	AuthService   AuthService
	ChatService   ChatService
	UploadService UploadService
}
