package travel

import (
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/tplengine"
)

const (
	tplParse       = "parse"
	tplParseJSON   = "parse_json"
	tplDateBudget  = "date_budget"
	tplDestination = "destination"
	tplCompile     = "compile"
)

const coordinatorSystem = `You are the Travel Coordinator Agent. You are responsible for compiling information from other agents into a final, user-friendly travel plan in Turkish.

You receive summaries for:
- Date and Budget
- Destination Information (including City Info, Weather, Hotel Booking Links, and Map View URL)

Synthesize ALL provided information into a fluent and readable TURKISH travel plan under the requested headings.
- Your response MUST be ONLY the final TURKISH plan.
- Under 'Konaklama Önerileri' list the hotel booking site links from the Destination Summary. Do not invent hotel details.
- Include the Map View URL (or the map error) under 'Harita Görünümü'.
- If any information is missing or indicates an error, note this politely in the relevant section.
- Do NOT call any tools. Only compile the provided summaries.`

const dateBudgetSystem = `You are the Date and Budget Agent, responsible for managing travel dates and budget calculations and presenting a summary.
1. Use the get_exchange_rates_and_budget tool to find exchange rates for the destination and assess the provided budget in local currency.
2. Use the calculate_travel_dates tool to confirm travel dates (YYYY-MM-DD) from the natural language description and duration.
3. Combine the results into a concise Turkish summary covering confirmed travel dates, budget assessment and key exchange rates (TRY, EUR, USD).`

const destinationSystem = `You are the Destination Research Agent. Your goal is to gather travel information and present it clearly in Turkish.
1. Use search_city_info for the DESTINATION city.
2. Use get_weather_forecast for the DESTINATION city and travel dates.
3. Use search_hotel_booking_links for the DESTINATION city and travel dates. Pay attention to any limitations.
4. Use get_tomtom_map_url for the DESTINATION city to obtain a map URL.
Structure the answer EXACTLY with the headings 'Şehir Bilgileri', 'Hava Durumu/Kıyafet Önerileri', 'Otel Seçenekleri', 'Harita Görünümü'.
Include the map tool output under 'Harita Görünümü'. If a tool fails, say so politely and continue. ONLY respond in Turkish.`

var prompts = tplengine.NewEngine().
	MustAddTemplate(tplParse, `Analyze the following user query and extract travel details by calling the {{ .Tool }} function.
User Query: "{{ .Query }}"

Today's date is {{ .Today }}. Use this for relative date context, but extract the user's original expression for 'natural_language_date'.

- origin: the starting city if specified ('from Istanbul', 'leaving from Izmir'). Leave null if not mentioned.
- destination: the destination city.
- natural_language_date: the user's description of the start date.
- duration_days: the duration as an integer number of days. 'one week' means 7, '3 days' means 3.
- budget_amount: the numerical budget amount.
- budget_currency: normalize 'TL', 'lira', '€', '$', 'Pound', 'Sterling' to TRY, EUR, USD, GBP. Leave null if ambiguous.
- error: if destination, date or duration are missing or ambiguous, explain it here but still extract the other fields.`).
	MustAddTemplate(tplParseJSON, `Analyze the following user query and extract these details: origin, destination, natural_language_date, duration_days, budget_amount, budget_currency.
Extract the origin city if specified (e.g., 'from Istanbul'). If not specified, set origin to null.
For duration_days, extract the number of days as an integer (e.g., '3 days' -> 3, 'one week' -> 7).
Normalize currency: 'TL', 'lira' -> 'TRY'; 'Euro', '€' -> 'EUR'; 'Dollar', '$' -> 'USD'; 'Sterling', '£' -> 'GBP'. If currency is ambiguous or missing, set budget_currency to null.
Output the result as ONLY a JSON object, without any surrounding text or markdown. Make sure keys are in double quotes.
User Query: "{{ .Query }}"
Example Output: {"origin": "Istanbul", "destination": "Paris", "natural_language_date": "next Wednesday", "duration_days": 7, "budget_amount": 1500, "budget_currency": "EUR"}`).
	MustAddTemplate(tplDateBudget, `Analyze the dates and budget for a trip.
Destination: {{ .Destination }}
Dates: {{ .NaturalDate }} (Calculated as {{ .Start }} to {{ .End }}, Duration: {{ .Days }} days)
Budget: {{ .Budget }} {{ .Currency }}

Provide a brief summary in TURKISH covering:
1. Confirmation of dates and duration.
2. Budget amount and currency. Mention if currency conversion might be needed (if not TRY).
3. A very brief note if the budget seems reasonable for the destination/duration.
Respond ONLY with the summary.`).
	MustAddTemplate(tplDestination, `Please collect detailed travel information for the following trip and provide the result as a Turkish summary:
- Origin: {{ .Origin | default "Not specified" }}
- Destination: {{ .Destination }}
- Start Date: {{ .Start }}
- End Date: {{ .End }}
- Budget Information (for reference): {{ .Budget }} {{ .Currency }}

1. Use search_city_info for {{ .Destination }}.
2. Use get_weather_forecast for {{ .Destination }} between {{ .Start }} - {{ .End }}.
3. Use search_hotel_booking_links for {{ .Destination }} for dates {{ .Start }} to {{ .End }}. Note limitations.
4. Use get_tomtom_map_url for {{ .Destination }}.
5. Combine results under: 'Şehir Bilgileri', 'Hava Durumu/Kıyafet Önerileri', 'Otel Seçenekleri', 'Harita Görünümü'. Include the map URL if available. Respond ONLY in Turkish.`).
	MustAddTemplate(tplCompile, `Create a final travel plan summary in TURKISH for the user using the information below.

User Request: {{ .Query }}
Parsed Info: {{ .Parsed }}
Calculated Dates: {{ .Start }} - {{ .End }} (Duration: {{ .Days }} days)
Origin: {{ .Origin | default "Not specified" }}

--- Date/Budget Summary ---
{{ .DateBudget }}
--- End Date/Budget Summary ---

--- Destination Summary (Includes City Info, Weather, Hotels, Map URL) ---
{{ .Destination }}
--- End Destination Summary ---
{{- if .Problems }}

Problems reported by earlier steps: {{ .Problems }}
{{- end }}

Task: Synthesize all this information into a plan with the following TURKISH headings:
1. Seyahat Özeti (Origin, Destination, Dates, Duration)
2. Bütçe ve Kur Bilgisi (from the Date/Budget Summary)
3. Hava Durumu ve Kıyafet Önerileri (from the Destination Summary)
4. Şehir ve Gezi Bilgileri (from the Destination Summary)
5. Konaklama Önerileri (from the Destination Summary, note limitations)
6. Harita Görünümü (include the Map URL from the Destination Summary)

If information is missing or an error occurred in previous steps, politely note this. Only compile, don't call new tools. Respond ONLY IN TURKISH.`)
