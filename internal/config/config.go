package config

type Config struct {
	Db_conn              string `mapstructure:"DB_CONN"`
	Jwt_secret           string `mapstructure:"JWT_SECRET"`
	Session_secret       string `mapstructure:"SESSION_SECRET"`
	Google_client_id     string `mapstructure:"GOOGLE_CLIENT_ID"`
	Google_client_secret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	Host                 string `mapstructure:"HOST"`
	Amqp_conn            string `mapstructure:"AMQP_CONN"`
	Redis_addr           string `mapstructure:"REDIS_ADDR"`
	Object_store         string `mapstructure:"OBJECT_STORE"`
	Cloudinary_cloud     string `mapstructure:"CLOUDINARY_CLOUD"`
	Cloudinary_key       string `mapstructure:"CLOUDINARY_KEY"`
	Cloudinary_secret    string `mapstructure:"CLOUDINARY_SECRET"`
	S3_bucket            string `mapstructure:"S3_BUCKET"`
	Max_issued_books     int    `mapstructure:"MAX_ISSUED_BOOKS"`
	Loan_period_days     int    `mapstructure:"LOAN_PERIOD_DAYS"`
}
