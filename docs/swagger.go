// Package docs provides Swagger documentation for the API.
package docs

// @title LeadPlay Campaign API
// @version 1.0
// @description API for gamified lead-generation campaigns and CRM lead sync
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://www.leadplay.io/support
// @contact.email support@leadplay.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https
