package config

import "os"

type Config struct {
	Port                    string
	Env                     string
	StoreBackend            string
	FirebaseCredentialsPath string
	FirestoreProjectID      string
	MongoURI                string
	PostgresConnStr         string
	CloudinaryCloudName     string
	CloudinaryUploadPreset  string
	GuestPIN                string
	AdminPIN                string
	JWTSecret               string
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		StoreBackend:            getEnv("STORE_BACKEND", "firestore"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirestoreProjectID:      getEnv("FIRESTORE_PROJECT_ID", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		CloudinaryCloudName:     getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryUploadPreset:  getEnv("CLOUDINARY_UPLOAD_PRESET", ""),
		GuestPIN:                getEnv("GUEST_PIN", ""),
		AdminPIN:                getEnv("ADMIN_PIN", ""),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
