package configuration

import (
	"encoding/json"
	"os"

	"github.com/AdityaDas31/Whisp-Backend/internal/storage"
)

type MongoConfig struct {
	Uri                string `json:"uri"`
	Database           string `json:"database"`
	MessagesCollection string `json:"messagesCollection"`
	ChatsCollection    string `json:"chatsCollection"`
	UsersCollection    string `json:"usersCollection"`
	StoriesCollection  string `json:"storiesCollection"`
	SocketRoute        string `json:"socketRoute"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type AuthConfig struct {
	JwtSecret string `json:"jwt_secret"`
}

type PushConfig struct {
	Endpoint  string `json:"endpoint"`
	ServerKey string `json:"server_key"`
}

type JobsConfig struct {
	StorySweepSchedule string `json:"story_sweep_schedule"`
}

type Config struct {
	ChatDatabase MongoConfig      `json:"mongo"`
	Server       ServerConfig     `json:"server"`
	Auth         AuthConfig       `json:"auth"`
	Push         PushConfig       `json:"push"`
	Storage      storage.S3Config `json:"storage"`
	Jobs         JobsConfig       `json:"jobs"`
}

func LoadConfig(config_path string) (*Config, error) {
	file, err := os.ReadFile(config_path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}
