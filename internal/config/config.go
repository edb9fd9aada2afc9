package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer

	// DataDir holds the two JSON documents (events.json, purchases.json)
	// that are the service's only durable storage.
	DataDir   string `env:"DATA_DIR" envDefault:"data"`
	StaticDir string `env:"STATIC_DIR" envDefault:"dist"`

	IPaymu IPaymu `envPrefix:"IPAYMU_"`
	Meta   Meta   `envPrefix:"FB_"`
	Admin  Admin  `envPrefix:"ADMIN_"`
	Funnel Funnel `envPrefix:"FUNNEL_"`
}

type IPaymu struct {
	// VA is the iPaymu virtual account (merchant account id).
	VA         string `env:"VA"`
	APIKey     string `env:"API_KEY"`
	Production bool   `env:"IS_PRODUCTION"`
	// BaseURL overrides the production/sandbox endpoint selection.
	BaseURL string `env:"BASE_URL"`
	// NotifyURL is the publicly reachable webhook callback. The gateway
	// rejects localhost, so this stays the deployed URL even in dev.
	NotifyURL string `env:"NOTIFY_URL" envDefault:"https://chr88.zenova.id/api/ipaymu-webhook"`
}

type Meta struct {
	PixelID     string `env:"PIXEL_ID"`
	AccessToken string `env:"CAPI_ACCESS_TOKEN"`
	GraphURL    string `env:"GRAPH_URL" envDefault:"https://graph.facebook.com/v21.0"`
}

type Admin struct {
	Email    string `env:"EMAIL"`
	Password string `env:"PASSWORD"`
}

// Funnel describes the single product this funnel sells and the page
// conversion events are attributed to.
type Funnel struct {
	Brand           string  `env:"BRAND" envDefault:"SixZenith"`
	SourceURL       string  `env:"SOURCE_URL" envDefault:"https://chr88.zenova.id/checkout.html"`
	ContentName     string  `env:"CONTENT_NAME" envDefault:"AI Arbitrage Blueprint - Batch 8"`
	ContentCategory string  `env:"CONTENT_CATEGORY" envDefault:"Course"`
	Currency        string  `env:"CURRENCY" envDefault:"IDR"`
	NominalPrice    float64 `env:"NOMINAL_PRICE" envDefault:"96000"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
