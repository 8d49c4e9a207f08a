package bootstrap

import (
	"github.com/eleven-am/newsdesk/internal/analytics"
	"github.com/eleven-am/newsdesk/internal/briefing"
	"github.com/eleven-am/newsdesk/internal/search"
	"github.com/eleven-am/newsdesk/internal/story"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideStoryStore(db *gorm.DB) *story.Store {
	return story.NewStore(db)
}

func ProvideBriefingStore(db *gorm.DB) *briefing.Store {
	return briefing.NewStore(db)
}

func ProvideAnalyticsStore(redisClient *redis.Client) *analytics.Store {
	return analytics.NewStore(redisClient)
}

func ProvideSearchIndex(qdrantClient *qdrant.Client) *search.Index {
	return search.NewIndex(qdrantClient)
}

func RunMigrations(storyStore *story.Store, briefingStore *briefing.Store) error {
	if err := storyStore.Migrate(); err != nil {
		return err
	}
	return briefingStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideStoryStore,
		ProvideBriefingStore,
		ProvideAnalyticsStore,
		ProvideSearchIndex,
	),
	fx.Invoke(RunMigrations),
)
