// @title           ReviewHub API
// @version         1.0
// @description     Course testimonial collection, moderation and reporting.
// @contact.name    ReviewHub
// @contact.email   support@example.com
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /api

package main

import "reviewhub_backend/internal/app"

func main() {
	app.Run()
}
