package policy

// DefaultRules is the platform rule table. Order matters: the first matching
// rule is the one reported.
var DefaultRules = []Rule{
	{
		ID:       "auth-pages",
		Category: "authentication",
		Phrases: []string{
			"login page", "signup page", "sign up page", "sign in page",
			"register page", "registration form", "auth page", "password reset",
		},
		Message:  "Storefronts use the platform's built-in sign-in; generated pages cannot include their own authentication.",
		Redirect: "Try describing the storefront sections you want instead, like a hero or product grid.",
		Localized: map[string]RuleText{
			"id": {
				Message:  "Toko online memakai login bawaan platform; halaman yang dibuat tidak boleh punya autentikasi sendiri.",
				Redirect: "Coba jelaskan bagian toko yang Anda inginkan, misalnya hero atau grid produk.",
			},
		},
	},
	{
		ID:       "account-pages",
		Category: "account",
		Phrases: []string{
			"account page", "account settings", "settings page", "profile page",
			"user dashboard", "admin panel", "admin dashboard",
		},
		Message:  "Account and settings screens are managed by the platform and cannot be generated.",
		Redirect: "You can customize everything buyers see on your public storefront.",
		Localized: map[string]RuleText{
			"id": {
				Message:  "Halaman akun dan pengaturan dikelola platform dan tidak dapat dibuat.",
				Redirect: "Anda bisa menyesuaikan semua yang dilihat pembeli di etalase publik Anda.",
			},
		},
	},
	{
		ID:       "backend-code",
		Category: "backend",
		Phrases: []string{
			"backend", "database", "sql", "api endpoint", "server side",
			"serverless function", "webhook handler",
		},
		Message:  "Generated storefronts are front-end only; backend and database code is out of scope.",
		Redirect: "Product data is wired in automatically from your catalog.",
		Localized: map[string]RuleText{
			"id": {
				Message:  "Toko yang dihasilkan hanya front-end; kode backend dan database di luar cakupan.",
				Redirect: "Data produk terhubung otomatis dari katalog Anda.",
			},
		},
	},
	{
		ID:       "payment-integration",
		Category: "payments",
		Phrases: []string{
			"stripe integration", "paypal integration", "payment gateway",
			"checkout flow", "custom checkout", "payment processing",
		},
		Message:  "Checkout and payments are handled by the platform; custom payment code cannot be generated.",
		Redirect: "Buy buttons are added to your products automatically.",
		Localized: map[string]RuleText{
			"id": {
				Message:  "Checkout dan pembayaran ditangani platform; kode pembayaran kustom tidak dapat dibuat.",
				Redirect: "Tombol beli ditambahkan ke produk Anda secara otomatis.",
			},
		},
	},
	{
		ID:       "nav-above-hero",
		Category: "layout",
		Phrases: []string{
			"navigation above the hero", "navbar above hero", "menu above the hero",
			"nav above hero",
		},
		Message: "The storefront layout keeps the hero section at the top; navigation above it is not supported.",
		Localized: map[string]RuleText{
			"id": {Message: "Tata letak toko menjaga bagian hero tetap di atas; navigasi di atasnya tidak didukung."},
		},
	},
	{
		ID:       "self-grant",
		Category: "abuse",
		Phrases: []string{
			"free credits", "unlimited credits", "grant me credits", "add credits",
			"ignore previous instructions", "ignore all previous", "system prompt",
			"make me admin", "give me admin",
		},
		Message: "That request is outside what the storefront generator can do.",
		Localized: map[string]RuleText{
			"id": {Message: "Permintaan itu di luar kemampuan generator toko."},
		},
	},
}
