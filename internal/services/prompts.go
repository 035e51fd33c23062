package services

// --- Job-ad classification prompts ---
//
// Both templates instruct the model to emit exactly one of two JSON shapes,
// discriminated by isJobAd. Unknown fields must come back as empty strings,
// never omitted and never null, so the extracted record always carries the
// full field set.

const imageJobPrompt = `Analyze the attached image and determine whether it is a job advertisement.

If it is NOT a job advertisement, respond ONLY with:
{
  "isJobAd": false,
  "reason": "Brief explanation of why it is not a job advertisement"
}

If it IS a job advertisement, respond in the following JSON format (if a piece of data is not present, leave the field as an empty string ""):
{
  "source": "aiGenerated",
  "isJobAd": true,
  "position": "name of the position",
  "title": "full title including the position",
  "description": "brief description synthesizing all available data from the advertisement",
  "city": "city",
  "address": "full address",
  "company": "company name",
  "vacancyCount": "number of vacancies",
  "requirements": "position requirements",
  "salaryRange": "salary range",
  "phone": "contact phone number",
  "email": "email address",
  "website": "website",
  "workingHours": "working hours"
}

Respond ONLY with the JSON, no additional text.`

const textJobPrompt = `Analyze the attached text and determine whether it is a job advertisement.

If it is NOT a job advertisement, respond ONLY with:
{
  "isJobAd": false,
  "reason": "Brief explanation of why it is not a job advertisement"
}

If it IS a job advertisement, respond in the following JSON format (if a piece of data is not present, leave the field as an empty string ""):
{
  "source": "aiGenerated",
  "isJobAd": true,
  "position": "name of the position",
  "title": "full title including the position",
  "description": "brief description synthesizing all available data from the advertisement",
  "city": "city",
  "address": "full address",
  "company": "company name",
  "vacancyCount": "number of vacancies",
  "requirements": "position requirements",
  "salaryRange": "salary range",
  "phone": "contact phone number",
  "email": "email address",
  "website": "website",
  "workingHours": "working hours"
}

Respond ONLY with the JSON, no additional text.`
