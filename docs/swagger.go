package docs

// @title 书籍推荐服务 API
// @version 1.0
// @description 基于阅读画像的AI书籍推荐服务，大模型不可用时自动降级到本地候选书目
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https
