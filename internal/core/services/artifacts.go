package services

import (
	"fmt"
	"os"
	"path/filepath"
)

// Static apps are served by nginx with an SPA fallback to index.html.
const dockerfile = `FROM nginx:1.27-alpine
COPY nginx.conf /etc/nginx/nginx.conf
COPY dist /usr/share/nginx/html
EXPOSE 80
CMD ["nginx", "-g", "daemon off;"]
`

const nginxConf = `worker_processes auto;
events { worker_connections 1024; }
http {
  include       /etc/nginx/mime.types;
  default_type  application/octet-stream;
  sendfile      on;
  server {
    listen 80;
    server_name _;
    root /usr/share/nginx/html;
    index index.html;
    location / {
      try_files $uri $uri/ /index.html;
    }
  }
}
`

// writeArtifacts writes the Dockerfile and nginx.conf into dir. With
// overwrite unset, existing files are kept.
func writeArtifacts(dir string, overwrite bool) error {
	for name, content := range map[string]string{
		"Dockerfile": dockerfile,
		"nginx.conf": nginxConf,
	} {
		path := filepath.Join(dir, name)
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
