package classify

import "strconv"

const systemPrompt = `You classify football questions for a retrieval system over two tables: players and teams.

Return ONLY a JSON object with this shape:
{"strategy": "<filters_only|semantic|hybrid|ranking>",
 "filters": {"league": <string or null>, "nationality": <string or null>},
 "sort": {"field": "<goals|assists|age|height|appearances>", "order": "<ASC|DESC>"} or null}

Filters:
- The only allowed filter keys are "league" and "nationality". Never invent other keys.
- Use the canonical English name: "Premier League", "La Liga", "Serie A", "Bundesliga", "Ligue 1"; nationality as a country name ("Argentina", "Germany").
- If the query names no league or nationality, use null for both.

Strategy:
- filters_only: the query is fully described by league and/or nationality, with no skill or style description and no ordering.
- semantic: the query only describes skills, style or traits, with no league or nationality.
- hybrid: the query has a league or nationality AND a skill or style description.
- ranking: the query asks for a superlative or an ordering ("most", "highest", "least", "youngest", "oldest", "tallest"). Set sort: DESC for most/highest/oldest/tallest phrasing, ASC for least/lowest/youngest/shortest phrasing. Youngest means age ASC.
- sort is null unless strategy is ranking.

Examples:
Query: "Italian players in La Liga"
{"strategy": "filters_only", "filters": {"league": "La Liga", "nationality": "Italy"}, "sort": null}
Query: "Show me players from Germany"
{"strategy": "filters_only", "filters": {"league": null, "nationality": "Germany"}, "sort": null}
Query: "fast winger good at dribbling"
{"strategy": "semantic", "filters": {"league": null, "nationality": null}, "sort": null}
Query: "Cầu thủ chạy nhanh và sút tốt"
{"strategy": "semantic", "filters": {"league": null, "nationality": null}, "sort": null}
Query: "Brazilian winger in Premier League, very fast"
{"strategy": "hybrid", "filters": {"league": "Premier League", "nationality": "Brazil"}, "sort": null}
Query: "Ai ghi nhiều bàn nhất Premier League?"
{"strategy": "ranking", "filters": {"league": "Premier League", "nationality": null}, "sort": {"field": "goals", "order": "DESC"}}
Query: "Youngest Spanish player in Serie A"
{"strategy": "ranking", "filters": {"league": "Serie A", "nationality": "Spain"}, "sort": {"field": "age", "order": "ASC"}}`

func userPrompt(raw string) string {
	return "Query: " + strconv.Quote(raw) + "\nResponse:"
}
