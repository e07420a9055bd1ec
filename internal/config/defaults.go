package config

var defaultModuleTypes = []string{
	"Module",
	"GEM2015",
	"GEM",
	"SSM",
	"UEM",
	"CFM",
}

func orString(value *string, fallback string) {
	if *value == "" {
		*value = fallback
	}
}

func orInt(value *int, fallback int) {
	if *value == 0 {
		*value = fallback
	}
}

// ApplyDefaults fills every zero field with the value the upstream sites
// expect.
func (c *Config) ApplyDefaults() {
	orString(&c.DataDir, "data")
	orInt(&c.JsonIndent, 2)

	orString(&c.Fetch.CacheDir, c.Path("cache"))
	orInt(&c.Fetch.TimeoutSeconds, 30)
	orInt(&c.Fetch.Concurrency, 8)
	orInt(&c.Fetch.RetryWaitMs, 1000)
	orInt(&c.Fetch.MemoryEntries, 512)
	if c.Fetch.RatePerSecond == 0 {
		c.Fetch.RatePerSecond = 5
	}
	orString(&c.Fetch.UserAgent, "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")

	orString(&c.Bulletin.Url, "https://ivle.nus.edu.sg/api/Lapi.svc/Bulletin_Module_Search")
	orString(&c.Bulletin.DestFileName, "bulletinModulesRaw.json")
	if c.Bulletin.Semesters == nil {
		c.Bulletin.Semesters = []int{1, 2, 3, 4}
	}

	orString(&c.Cors.RegularUrl, "https://myaces.nus.edu.sg/cors/jsp/report/")
	orString(&c.Cors.SpecialUrl, "https://myaces.nus.edu.sg/sts/jsp/report/")
	orString(&c.Cors.DestFileName, "corsRaw.json")
	orString(&c.Cors.DestLessonTypes, "lessonTypes.json")
	orInt(&c.Cors.Concurrency, 16)
	if len(c.Cors.ModuleTypes) == 0 {
		c.Cors.ModuleTypes = defaultModuleTypes
	}

	orString(&c.Bidding.ArchiveUrl, "https://myaces.nus.edu.sg/cors/jsp/report/ModuleBiddingStatsArchive.jsp")
	orString(&c.Bidding.DestFileName, "corsBiddingStatsRaw.json")
	orInt(&c.Bidding.Concurrency, 4)

	orString(&c.Exams.BaseUrl, "https://webrb.nus.edu.sg/examtt")
	orString(&c.Exams.DestFileName, "examTimetableRaw.json")

	orString(&c.Venues.Url, "http://nuslivinglab.nus.edu.sg/api_dev/api/Dept")
	orString(&c.Venues.DestFileName, "venuesRaw.json")

	orString(&c.Ivle.Url, "https://ivle.nus.edu.sg/api/Lapi.svc/Modules_Search")
	orString(&c.Ivle.DestFileName, "ivleRaw.json")
	orInt(&c.Ivle.Concurrency, 8)

	orString(&c.Collate.DestFolder, "api")
	orString(&c.Collate.CyclePolicy, "warn")

	orString(&c.Persist.Kind, "fs")
	orString(&c.Persist.Sqlite.File, c.Path("nusmods.db"))

	orString(&c.Schedule.Cron, "0 3 * * *")
}
