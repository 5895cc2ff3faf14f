package simulation

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"crisiswatch/internal/model"
)

// Sentiment classification thresholds.
const (
	positiveThreshold = 0.3
	negativeThreshold = -0.3
)

// simLocation is a simulated geographic origin for synthetic tweets.
type simLocation struct {
	City string
	Lat  string
	Lng  string
}

var simLocations = []simLocation{
	{City: "Charlotte, NC", Lat: "35.2271", Lng: "-80.8431"},
	{City: "Raleigh, NC", Lat: "35.7796", Lng: "-78.6382"},
	{City: "Wilmington, NC", Lat: "34.2104", Lng: "-77.8868"},
	{City: "Greensboro, NC", Lat: "36.0726", Lng: "-79.7920"},
	{City: "Durham, NC", Lat: "35.9940", Lng: "-78.8986"},
	{City: "Winston-Salem, NC", Lat: "36.0999", Lng: "-80.2442"},
	{City: "Fayetteville, NC", Lat: "35.0527", Lng: "-78.8784"},
	{City: "Cary, NC", Lat: "35.7915", Lng: "-78.7811"},
}

// tweetTemplate is a pre-scored content template. Placeholder tokens are
// substituted with entries from the vocabularies below.
type tweetTemplate struct {
	Content string
	Score   float64
}

var tweetTemplates = []tweetTemplate{
	{Content: "Water levels rising on {street} Street. Anyone know if evacuation centers are open? #HurricaneFlorence #Emergency", Score: -0.7},
	{Content: "Just lost power in {neighborhood} area. Anyone else affected? #PowerOutage #HurricaneFlorence", Score: -0.5},
	{Content: "Emergency responders rescued a family from their flooded home on {street} Avenue. Heroes! #RescueEfforts #HurricaneFlorence", Score: 0.8},
	{Content: "Weather update: Hurricane Florence now downgraded but still dangerous. Stay alert. #WeatherUpdate #HurricaneFlorence", Score: -0.1},
	{Content: "Volunteers needed at {school} shelter. Bring supplies if possible. #NCEvac #HurricaneFlorence", Score: 0.6},
	{Content: "Road closed due to flooding: {street} between Main and Oak. Seek alternate routes. #FloodWarning #NCTraffic", Score: -0.2},
	{Content: "Just watched the roof blow off the {building} building downtown. Terrifying. Stay safe everyone. #HurricaneFlorence #Damage", Score: -0.8},
	{Content: "National Guard has arrived in {city} with supplies and equipment. Thank you for the help! #Relief #EmergencyResponse", Score: 0.75},
}

var (
	streets       = []string{"Main", "Oak", "Pine", "Maple", "River", "Lake", "Church", "Washington"}
	neighborhoods = []string{"Downtown", "Riverside", "Oakwood", "Northside", "Westview", "Southpark"}
	schools       = []string{"Lincoln High", "Washington Elementary", "Jefferson Middle", "Central High", "Memorial Elementary"}
	buildings     = []string{"Town Hall", "Library", "Police Station", "Post Office", "Shopping Center", "Hospital"}

	usernames  = []string{"resident", "local", "citizen", "neighbor", "reporter", "eyewitness"}
	adjectives = []string{"concerned", "worried", "hopeful", "alert", "cautious", "informed"}
)

// trackedKeywords is the fixed keyword list matched against generated
// content (case-insensitive substring match).
var trackedKeywords = []string{
	"hurricane", "flood", "evacuation", "damage", "rescue",
	"HurricaneFlorence", "NCEvac", "FloodWarning", "Emergency",
}

// Synthesizer generates synthetic tweets from the template catalog and
// records each tweet's classification with the sentiment aggregator.
type Synthesizer struct {
	agg *SentimentAggregator
	rng Rand

	// counter disambiguates tweet IDs generated within the same millisecond.
	counter atomic.Int64
}

// NewSynthesizer creates a Synthesizer bound to an aggregator and a random
// source.
func NewSynthesizer(agg *SentimentAggregator, rng Rand) *Synthesizer {
	s := &Synthesizer{agg: agg, rng: rng}
	s.counter.Store(100000000)
	return s
}

// Synthesize generates one tweet for the disaster: it picks a template,
// fills placeholders, jitters the base sentiment score by ±0.1, classifies
// the result and records it with the aggregator.
func (s *Synthesizer) Synthesize(disasterID int) model.Tweet {
	template := tweetTemplates[s.rng.Intn(len(tweetTemplates))]
	content := s.fillTemplate(template.Content)

	location := simLocations[s.rng.Intn(len(simLocations))]

	jitter := s.rng.Float64()*0.2 - 0.1
	score := template.Score + jitter
	class := ClassifySentiment(score)

	s.agg.Record(location.City, class)

	return model.Tweet{
		TweetID:         s.nextTweetID(),
		DisasterID:      disasterID,
		Username:        s.randomUsername(),
		DisplayName:     s.randomDisplayName(),
		Content:         content,
		Location:        location.City,
		Latitude:        location.Lat,
		Longitude:       location.Lng,
		Sentiment:       class,
		SentimentScore:  fmt.Sprintf("%.2f", score),
		Timestamp:       time.Now(),
		MatchedKeywords: MatchKeywords(content),
	}
}

// ClassifySentiment thresholds a numeric score into a sentiment class:
// positive at >= +0.3, negative at <= -0.3, neutral otherwise.
func ClassifySentiment(score float64) model.Sentiment {
	switch {
	case score >= positiveThreshold:
		return model.SentimentPositive
	case score <= negativeThreshold:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

// MatchKeywords returns the tracked keywords whose text appears
// case-insensitively in content.
func MatchKeywords(content string) []string {
	lower := strings.ToLower(content)
	matched := make([]string, 0, len(trackedKeywords))
	for _, keyword := range trackedKeywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			matched = append(matched, keyword)
		}
	}
	return matched
}

func (s *Synthesizer) fillTemplate(content string) string {
	replacements := []struct {
		token string
		pick  func() string
	}{
		{"{street}", func() string { return streets[s.rng.Intn(len(streets))] }},
		{"{neighborhood}", func() string { return neighborhoods[s.rng.Intn(len(neighborhoods))] }},
		{"{school}", func() string { return schools[s.rng.Intn(len(schools))] }},
		{"{building}", func() string { return buildings[s.rng.Intn(len(buildings))] }},
		{"{city}", func() string {
			city := simLocations[s.rng.Intn(len(simLocations))].City
			return strings.SplitN(city, ",", 2)[0]
		}},
	}

	for _, r := range replacements {
		if strings.Contains(content, r.token) {
			content = strings.Replace(content, r.token, r.pick(), 1)
		}
	}
	return content
}

// nextTweetID combines a monotonically increasing counter with a millisecond
// timestamp so IDs stay unique across restarts.
func (s *Synthesizer) nextTweetID() string {
	return fmt.Sprintf("tw%d_%d", s.counter.Add(1), time.Now().UnixMilli())
}

func (s *Synthesizer) randomUsername() string {
	return fmt.Sprintf("%s%d", usernames[s.rng.Intn(len(usernames))], s.rng.Intn(1000))
}

func (s *Synthesizer) randomDisplayName() string {
	adjective := adjectives[s.rng.Intn(len(adjectives))]
	noun := usernames[s.rng.Intn(len(usernames))]
	return fmt.Sprintf("%s %s", title(adjective), title(noun))
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
