package services

import (
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	urlpkg "net/url"
	"regexp"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
)

// VideoMetadata is stored in recursos.metadata for video resources.
type VideoMetadata struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Thumbnail   string `json:"thumbnail"`
	DurationSec int    `json:"duration_sec"`
}

type YouTubeService struct {
	httpClient    *http.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
}

type timedTextXML struct {
	XMLName xml.Name  `xml:"transcript"`
	Texts   []textXML `xml:"text"`
}

type textXML struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{HTTPClient: &http.Client{Timeout: 30 * time.Second}},
	}
}

// Metadata resolves title, channel and duration of a video URL.
func (s *YouTubeService) Metadata(videoURL string) (*VideoMetadata, error) {
	id := VideoID(videoURL)
	if id == "" {
		return nil, fmt.Errorf("not a YouTube URL: %s", videoURL)
	}

	meta := &VideoMetadata{
		VideoID:   id,
		Thumbnail: fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", id),
	}

	video, err := s.ytClient.GetVideo(id)
	if err == nil {
		meta.Title = video.Title
		meta.Channel = video.Author
		meta.DurationSec = int(video.Duration.Seconds())
		if len(video.Thumbnails) > 0 {
			meta.Thumbnail = video.Thumbnails[len(video.Thumbnails)-1].URL
		}
		return meta, nil
	}

	log.Printf("YouTube client lookup failed for %s, scraping watch page: %v", id, err)
	if scrapeErr := s.scrapeMetadata(meta); scrapeErr != nil {
		return nil, fmt.Errorf("metadata lookup failed (%v) and page fallback failed (%v)", err, scrapeErr)
	}
	return meta, nil
}

func (s *YouTubeService) scrapeMetadata(meta *VideoMetadata) error {
	pageHTML, err := s.fetchWatchPage(meta.VideoID)
	if err != nil {
		return err
	}

	if m := regexp.MustCompile(`<title>(.*?) - YouTube</title>`).FindStringSubmatch(pageHTML); len(m) > 1 {
		meta.Title = html.UnescapeString(m[1])
	}
	if m := regexp.MustCompile(`"ownerChannelName":"(.*?)"`).FindStringSubmatch(pageHTML); len(m) > 1 {
		meta.Channel = m[1]
	}
	if m := regexp.MustCompile(`"lengthSeconds":"(\d+)"`).FindStringSubmatch(pageHTML); len(m) > 1 {
		fmt.Sscanf(m[1], "%d", &meta.DurationSec)
	}
	if meta.Title == "" {
		return fmt.Errorf("title not found on watch page")
	}
	return nil
}

// GetTranscript fetches captions, preferring Portuguese tracks.
func (s *YouTubeService) GetTranscript(videoID string) (string, error) {
	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"pt", "pt-BR", "pt-PT", "en"})
	if err != nil {
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			legacyTranscript, legacyErr := s.getTranscriptViaTimedText(videoID)
			if legacyErr == nil {
				return legacyTranscript, nil
			}
			return "", fmt.Errorf("no subtitles available via transcript API (%v) and timedtext fallback failed (%v)", err, legacyErr)
		}
	}

	if len(transcript.Entries) == 0 {
		return "", fmt.Errorf("subtitle track is empty")
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}

	cleaned := strings.TrimSpace(fullText.String())
	if cleaned == "" {
		return "", fmt.Errorf("subtitle text resolved to empty content")
	}

	return cleaned, nil
}

func (s *YouTubeService) fetchWatchPage(videoID string) (string, error) {
	pageURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	req, _ := http.NewRequest("GET", pageURL, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch YouTube page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read YouTube page: %w", err)
	}
	return string(body), nil
}

func (s *YouTubeService) getTranscriptViaTimedText(videoID string) (string, error) {
	pageHTML, err := s.fetchWatchPage(videoID)
	if err != nil {
		return "", err
	}

	captionURL, err := extractCaptionURL(pageHTML)
	if err != nil {
		return "", err
	}

	captionResp, err := s.httpClient.Get(captionURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer captionResp.Body.Close()

	captionBody, err := io.ReadAll(captionResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read captions: %w", err)
	}

	transcript, err := parseCaptionsXML(captionBody)
	if err != nil {
		return "", fmt.Errorf("failed to parse captions XML: %w", err)
	}

	return transcript, nil
}

var (
	captionTracksRe = regexp.MustCompile(`"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
	baseURLRe       = regexp.MustCompile(`"baseUrl"\s*:\s*"(.*?)"`)
)

func extractCaptionURL(pageHTML string) (string, error) {
	matches := captionTracksRe.FindStringSubmatch(pageHTML)
	if len(matches) < 2 {
		return "", fmt.Errorf("no captions available for this video")
	}

	urlMatches := baseURLRe.FindStringSubmatch(matches[1])
	if len(urlMatches) < 2 {
		return "", fmt.Errorf("caption track found but baseUrl missing")
	}

	u := urlMatches[1]
	u = strings.ReplaceAll(u, `\u0026`, "&")
	u = strings.ReplaceAll(u, `\/`, "/")

	return u, nil
}

func parseCaptionsXML(data []byte) (string, error) {
	var tt timedTextXML
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", err
	}

	var parts []string
	for _, t := range tt.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Text))
		if text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("captions XML empty")
	}

	return strings.Join(parts, " "), nil
}

var videoIDRe = regexp.MustCompile(`(?:v=|\/v\/|youtu\.be\/|embed\/|shorts\/)([a-zA-Z0-9_-]{11})`)

// VideoID extracts the 11-character id from the usual YouTube URL forms,
// or returns "".
func VideoID(url string) string {
	parsed, err := urlpkg.Parse(url)
	if err == nil {
		host := strings.ToLower(parsed.Host)
		path := strings.Trim(parsed.Path, "/")

		if strings.Contains(host, "youtube.com") {
			if v := parsed.Query().Get("v"); len(v) == 11 {
				return v
			}

			parts := strings.Split(path, "/")
			if len(parts) >= 2 {
				switch parts[0] {
				case "shorts", "embed", "v", "live":
					if len(parts[1]) == 11 {
						return parts[1]
					}
				}
			}
		}

		if strings.Contains(host, "youtu.be") {
			if candidate := strings.Split(path, "/")[0]; len(candidate) == 11 {
				return candidate
			}
		}
	}

	if m := videoIDRe.FindStringSubmatch(url); len(m) > 1 {
		return m[1]
	}
	return ""
}
