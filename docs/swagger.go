package docs

// @title           Ride Dispatch API
// @version         1.0
// @description     Dispatch service handles driver availability, location tracking, nearby driver matching, ride offers with expanding search radius, and atomic ride acceptance. Realtime events flow over WebSocket and the message broker.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
